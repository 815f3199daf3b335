package templating

import (
	"path/filepath"
	"strings"

	"github.com/CTAG07/Pitcher/pkg/content"
)

// categoryListLoop renders one item per page of a category. Each item sees
// the page's own variables next to @url, @thumb and @css_class.
func categoryListLoop(p *PartialRenderer, lc LoopContext) (string, error) {
	if lc.Loop == "" {
		return "", nil
	}
	dirs, err := content.ListPrefixedDirs(lc.Dir)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, d := range dirs {
		url := joinURL(lc.URL, content.CleanName(d))
		item, err := p.resolver.StandIn(url)
		if err != nil {
			return "", err
		}
		itemVars, err := p.parser.Parse(item, lc.Request)
		if err != nil {
			return "", err
		}

		thumb := item.Thumb()
		if thumb != "" {
			thumb = lc.Node.LinkPath + strings.TrimPrefix(thumb, item.LinkPath)
		}
		vars := NewVariableSet()
		vars.Set("@url", lc.Node.LinkPath+url+"/")
		vars.Set("@thumb", thumb)
		vars.Set("@css_class", activeClass(item.IsCurrent(lc.Request.CurrentPath)))
		vars.Merge(itemVars)
		b.WriteString(vars.Apply(lc.Loop))
	}
	return b.String(), nil
}

// navigationLoop renders one item per top-level page and category except
// the index.
func navigationLoop(p *PartialRenderer, lc LoopContext) (string, error) {
	return topLevelLoop(p, lc, true)
}

// pagesLoop renders one item per top-level page that is not a category.
func pagesLoop(p *PartialRenderer, lc LoopContext) (string, error) {
	return topLevelLoop(p, lc, false)
}

func topLevelLoop(p *PartialRenderer, lc LoopContext, withCategories bool) (string, error) {
	dirs, err := content.ListPrefixedDirs(lc.Dir)
	if err != nil {
		return "", err
	}
	section := strings.Trim(lc.Request.CurrentPath, "/")
	if i := strings.IndexByte(section, '/'); i >= 0 {
		section = section[:i]
	}
	index := p.resolver.Layout().IndexName

	var b strings.Builder
	for _, d := range dirs {
		clean := content.CleanName(d)
		if clean == index {
			continue
		}
		if !withCategories && content.HasSubdirs(filepath.Join(lc.Dir, d)) {
			continue
		}
		vars := NewVariableSet()
		vars.Set("@url", lc.Node.LinkPath+joinURL(lc.URL, clean)+"/")
		vars.Set("@name", content.DisplayName(clean))
		vars.Set("@css_class", activeClass(section == clean))
		b.WriteString(vars.Apply(lc.Loop))
	}
	return b.String(), nil
}
