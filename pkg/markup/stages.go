package markup

import (
	"regexp"
	"strings"
)

const (
	keyMarker  = "\x01"
	itemMarker = "\x02"

	escapedColon = "&#58;"
	escapedDash  = "&#45;"
)

var (
	stripMarkers   = strings.NewReplacer(keyMarker, "", itemMarker, "")
	restoreMarkers = strings.NewReplacer(keyMarker, ":", itemMarker, "-")

	keyColon = regexp.MustCompile(`(?m)^([a-z0-9_-]+):(/?)`)
	itemDash = regexp.MustCompile(`(?m)^-`)

	bareURL   = regexp.MustCompile(`\b(https?)&#58;//([^\s<"]+\.[^\s<"]*[A-Za-z0-9/;])`)
	bareEmail = regexp.MustCompile(`\b((?:[A-Za-z0-9._]|&#45;)+)@((?:[A-Za-z0-9.]|&#45;)+\.[A-Za-z]{2,4})`)

	listItem = regexp.MustCompile(`\n?-([^\n]+)`)
	listRun  = regexp.MustCompile(`(<li>.*</li>)`)

	heading    = regexp.MustCompile(`(?m)^h([0-5])\.[ \t]?(.*)`)
	blockStart = regexp.MustCompile(`^<(?:ul|ol|li|dl|h[0-6]|p|div|blockquote|pre|table|hr)\b`)

	wrappedPair    = regexp.MustCompile(`<p>(.+):(.+)</p>`)
	valueBeforeP   = regexp.MustCompile(`: ([^\n]+)\n<p>`)
	wrappedKey     = regexp.MustCompile(`<p>((?:[a-z0-9_]|&#45;)+):</p>`)
	wrappedHeading = regexp.MustCompile(`<p>(<h[0-5]>.*</h[0-5]>)</p>`)
)

// EscapePunctuation marks the structural colon of every line-start key and
// every line-start dash, then escapes all other colons and dashes as HTML
// entities so later stages cannot mistake them for structure. A colon
// followed by "/" never starts a key.
func EscapePunctuation(s string) string {
	s = stripMarkers.Replace(s)
	s = keyColon.ReplaceAllStringFunc(s, func(m string) string {
		if strings.HasSuffix(m, "/") {
			return m
		}
		return m[:len(m)-1] + keyMarker
	})
	s = strings.ReplaceAll(s, ":", escapedColon)
	s = itemDash.ReplaceAllString(s, itemMarker)
	return strings.ReplaceAll(s, "-", escapedDash)
}

// RestoreMarkers turns the structural markers back into ":" and "-".
func RestoreMarkers(s string) string {
	return restoreMarkers.Replace(s)
}

// AutolinkURLs links bare http(s) URLs that are not already an attribute
// value or the text of a tag.
func AutolinkURLs(s string) string {
	return replaceUnlessAfter(bareURL, s, `">`, func(m []string) string {
		u := m[1] + escapedColon + "//" + m[2]
		return `<a href="` + u + `">` + u + `</a>`
	})
}

// AutolinkEmails links bare e-mail addresses that are not already inside a
// mailto link.
func AutolinkEmails(s string) string {
	return replaceUnlessAfter(bareEmail, s, `;>`, func(m []string) string {
		addr := m[1] + "&#64;" + m[2]
		return `<a href="mailto` + escapedColon + addr + `">` + addr + `</a>`
	})
}

// Lists turns dash lines into list items. Each item swallows the newline in
// front of it, so a run of items ends up on one line and is wrapped in a
// single <ul>.
func Lists(s string) string {
	s = listItem.ReplaceAllString(s, "<li>${1}</li>")
	return listRun.ReplaceAllString(s, "<ul>${1}</ul>")
}

// CollapseListItems removes doubled closing tags left by Lists.
func CollapseListItems(s string) string {
	return strings.ReplaceAll(s, "</li></li>", "</li>")
}

// Headings converts "hN. text" lines, N from 0 to 5.
func Headings(s string) string {
	return heading.ReplaceAllString(s, "<h${1}>${2}</h${1}>")
}

// Paragraphs wraps every non-blank line that is followed by a newline and does
// not already open a block element. Whitespace-only lines become empty so that
// they still separate fields.
func Paragraphs(s string) string {
	lines := strings.Split(s, "\n")
	for i := 0; i < len(lines)-1; i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		if blockStart.MatchString(line) {
			continue
		}
		lines[i] = "<p>" + line + "</p>"
	}
	return strings.Join(lines, "\n")
}

// RepairParagraphs undoes the paragraph wrapping of key lines and headings.
// The first value line of a multi-line value gets its own paragraph.
func RepairParagraphs(s string) string {
	s = wrappedPair.ReplaceAllString(s, "${1}:${2}")
	s = valueBeforeP.ReplaceAllString(s, ":<p>${1}</p>\n<p>")
	s = wrappedKey.ReplaceAllString(s, "${1}:")
	return wrappedHeading.ReplaceAllString(s, "${1}")
}

// replaceUnlessAfter replaces matches of re through repl, skipping matches
// directly preceded by one of the bytes in forbidden.
func replaceUnlessAfter(re *regexp.Regexp, s, forbidden string, repl func(groups []string) string) string {
	idx := re.FindAllStringSubmatchIndex(s, -1)
	if idx == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range idx {
		start, end := loc[0], loc[1]
		if start > 0 && strings.IndexByte(forbidden, s[start-1]) >= 0 {
			continue
		}
		groups := make([]string, len(loc)/2)
		for g := range groups {
			if loc[2*g] >= 0 {
				groups[g] = s[loc[2*g]:loc[2*g+1]]
			}
		}
		b.WriteString(s[last:start])
		b.WriteString(repl(groups))
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}
