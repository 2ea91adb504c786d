package assets

// Built-in asset names.
const (
	DefaultStyleName     = "default"
	DocumentTemplateName = "document"
)

// Files written at the output root, shared by every page.
const (
	StylesheetFile = "styles.css"
	HighlightFile  = "highlight.css"
)

var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads an embedded CSS style by name (without .css).
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTemplate loads an embedded HTML template by name (without .html).
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}
