package templating

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var dimensions = regexp.MustCompile(`(\d+?)x(\d+?)\.`)

func imagesLoop(p *PartialRenderer, lc LoopContext) (string, error) {
	var b strings.Builder
	for _, f := range lc.Node.Images {
		vars := NewVariableSet()
		vars.Set("@url", lc.Node.AssetURL(f))
		b.WriteString(vars.Apply(lc.Loop))
	}
	return b.String(), nil
}

func videoLoop(p *PartialRenderer, lc LoopContext) (string, error) {
	return sizedMediaLoop(lc, lc.Node.Videos), nil
}

func swfLoop(p *PartialRenderer, lc LoopContext) (string, error) {
	return sizedMediaLoop(lc, lc.Node.Objects), nil
}

// sizedMediaLoop fills @width and @height from a "<w>x<h>." part of the
// file name, or leaves them empty.
func sizedMediaLoop(lc LoopContext, files []string) string {
	var b strings.Builder
	for _, f := range files {
		var w, h string
		if m := dimensions.FindStringSubmatch(f); m != nil {
			w, h = m[1], m[2]
		}
		vars := NewVariableSet()
		vars.Set("@url", lc.Node.AssetURL(f))
		vars.Set("@width", w)
		vars.Set("@height", h)
		b.WriteString(vars.Apply(lc.Loop))
	}
	return b.String()
}

// htmlLoop inlines the node's html files verbatim.
func htmlLoop(p *PartialRenderer, lc LoopContext) (string, error) {
	var b strings.Builder
	for _, f := range lc.Node.HTML {
		data, err := os.ReadFile(filepath.Join(lc.Node.Dir, f))
		if err != nil {
			return "", fmt.Errorf("read html asset %s: %w", f, err)
		}
		b.Write(data)
	}
	return b.String(), nil
}
