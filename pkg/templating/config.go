package templating

// TemplateConfig holds all configuration options for the templating engine.
type TemplateConfig struct {
	// Partials maps a partial type to its file name in the partials
	// directory, without the ".html" extension. Types missing from the map
	// use their default file name. The html type never reads a partial.
	Partials map[PartialType]string `json:"partials" yaml:"partials"`

	// DebugEnabled fills @Debug with the node's internals. When false @Debug
	// is substituted with an empty string.
	DebugEnabled bool `json:"debug_enabled" yaml:"debug_enabled"`
}

// DefaultConfig returns a TemplateConfig using the conventional partial
// file names, with @Debug enabled.
func DefaultConfig() TemplateConfig {
	return TemplateConfig{
		Partials: map[PartialType]string{
			PartialCategoryList: "category-list",
			PartialNavigation:   "navigation",
			PartialPages:        "pages",
			PartialImages:       "images",
			PartialVideo:        "video",
			PartialSwf:          "swf",
			PartialPreviousPage: "previous-page",
			PartialNextPage:     "next-page",
		},
		DebugEnabled: true,
	}
}

// partialFile returns the configured file name for t.
func (c TemplateConfig) partialFile(t PartialType) string {
	if t == PartialHTML {
		return ""
	}
	if name, ok := c.Partials[t]; ok && name != "" {
		return name
	}
	return string(t)
}
