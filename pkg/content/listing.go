package content

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var orderPrefix = regexp.MustCompile(`^(\d+)\.`)

// OrderPrefix returns the numeric ordering prefix of name, or 0 if it has none.
func OrderPrefix(name string) int {
	m := orderPrefix.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// HasOrderPrefix reports whether name starts with "<digits>.".
func HasOrderPrefix(name string) bool {
	return orderPrefix.MatchString(name)
}

// CleanName strips the ordering prefix: "2.about" becomes "about".
func CleanName(name string) string {
	return orderPrefix.ReplaceAllString(name, "")
}

// DisplayName turns a clean name into a label: "about-us" becomes "About us".
func DisplayName(clean string) string {
	return UpperFirst(strings.ReplaceAll(clean, "-", " "))
}

// UpperFirst upper-cases the first rune of s.
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// SortEntries orders names by descending ordering prefix. Names without a
// prefix count as 0 and ties fall back to ascending name order so that every
// listing is deterministic.
func SortEntries(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		pi, pj := OrderPrefix(names[i]), OrderPrefix(names[j])
		if pi != pj {
			return pi > pj
		}
		return names[i] < names[j]
	})
}

// ListDirs returns the names of the immediate subdirectories of dir in
// listing order. A missing directory yields an empty listing.
func ListDirs(dir string) ([]string, error) {
	return list(dir, func(e fs.DirEntry) bool { return e.IsDir() })
}

// ListPrefixedDirs is ListDirs restricted to entries with an ordering prefix,
// the only ones that are addressable.
func ListPrefixedDirs(dir string) ([]string, error) {
	return list(dir, func(e fs.DirEntry) bool { return e.IsDir() && HasOrderPrefix(e.Name()) })
}

// ListFiles returns regular file names in dir accepted by match, in listing order.
func ListFiles(dir string, match func(name string) bool) ([]string, error) {
	return list(dir, func(e fs.DirEntry) bool {
		return !e.IsDir() && (match == nil || match(e.Name()))
	})
}

// ListAll returns every entry name in dir, directories and files alike.
func ListAll(dir string) ([]string, error) {
	return list(dir, func(fs.DirEntry) bool { return true })
}

// HasSubdirs reports whether dir contains at least one directory.
func HasSubdirs(dir string) bool {
	dirs, err := ListDirs(dir)
	return err == nil && len(dirs) > 0
}

func list(dir string, keep func(fs.DirEntry) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if keep(e) {
			names = append(names, e.Name())
		}
	}
	SortEntries(names)
	return names, nil
}

// extMatcher matches file names whose extension is in exts, ignoring case.
func extMatcher(exts []string) func(string) bool {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return func(name string) bool {
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return false
		}
		_, ok := set[strings.ToLower(name[i+1:])]
		return ok
	}
}
