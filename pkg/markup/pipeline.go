package markup

// Stage is one text transform of the content pipeline.
type Stage struct {
	Name string
	Fn   func(string) string
}

// Pipeline applies its stages in order, each stage reading the previous output.
type Pipeline []Stage

// Run feeds text through every stage.
func (p Pipeline) Run(text string) string {
	for _, s := range p {
		text = s.Fn(text)
	}
	return text
}

// Names lists the stage names in execution order.
func (p Pipeline) Names() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name
	}
	return names
}

// DefaultPipeline returns the content pipeline. The order matters: structural
// colons and dashes are locked in before anything can add markup, and the
// paragraph repair must run last.
func DefaultPipeline() Pipeline {
	return Pipeline{
		{Name: "escape-punctuation", Fn: EscapePunctuation},
		{Name: "restore-markers", Fn: RestoreMarkers},
		{Name: "autolink-urls", Fn: AutolinkURLs},
		{Name: "autolink-emails", Fn: AutolinkEmails},
		{Name: "lists", Fn: Lists},
		{Name: "collapse-list-items", Fn: CollapseListItems},
		{Name: "headings", Fn: Headings},
		{Name: "paragraphs", Fn: Paragraphs},
		{Name: "repair-paragraphs", Fn: RepairParagraphs},
	}
}

// Parse runs the default pipeline over text and extracts its fields.
func Parse(text string) []Field {
	return ExtractFields(DefaultPipeline().Run(text))
}
