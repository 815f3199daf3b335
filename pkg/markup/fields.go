package markup

import (
	"regexp"
	"strings"
)

// Field is one "key: value" pair of a parsed content file.
type Field struct {
	Key   string
	Value string
}

var fieldBlock = regexp.MustCompile(`((?:[A-Za-z0-9_]|&#45;)+):([\s\S]*?)\n\n`)

// ExtractFields scans pipeline output for key blocks. A value runs from the
// key's colon to the next blank line but stops at any further raw colon,
// which only a key missing its blank-line separator can produce.
func ExtractFields(s string) []Field {
	var fields []Field
	for _, m := range fieldBlock.FindAllStringSubmatch(s, -1) {
		value := m[2]
		if i := strings.IndexByte(value, ':'); i >= 0 {
			value = value[:i]
		}
		fields = append(fields, Field{
			Key:   strings.ReplaceAll(m[1], escapedDash, "-"),
			Value: strings.TrimSpace(value),
		})
	}
	return fields
}
