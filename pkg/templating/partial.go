package templating

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
)

var loopRegion = regexp.MustCompile(`(?s)^(.*)foreach.*?:(.*)endforeach;(.*)$`)

// Partial is a partial template split around its loop region. The loop body
// is repeated once per item; Prefix and Suffix are emitted once.
type Partial struct {
	Prefix string
	Loop   string
	Suffix string
}

// SplitPartial splits text around "foreach ...: ... endforeach;". Text with
// no loop region is used as the loop body in full.
func SplitPartial(text string) Partial {
	m := loopRegion.FindStringSubmatch(text)
	if m == nil {
		return Partial{Loop: text}
	}
	return Partial{Prefix: m[1], Loop: m[2], Suffix: m[3]}
}

// LoadPartial reads and splits the partial at path. The boolean result is
// false when the file does not exist.
func LoadPartial(path string) (Partial, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Partial{}, false, nil
		}
		return Partial{}, false, fmt.Errorf("read partial %s: %w", path, err)
	}
	return SplitPartial(normalizeNewlines(string(b))), true, nil
}

func missingPartial(file string) string {
	return "<p>! " + file + " not found.</p>"
}
