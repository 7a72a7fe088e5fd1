package config

//go:generate go tool go-enum --marshal --names --values

// Specification of requested output type.
// ENUM(txt, md, html, json, webapp)
type OutputFmt string

// Ext returns file extension (with leading dot) used for main output file.
func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtTxt:
		return ".txt"
	case OutputFmtMd:
		return ".md"
	case OutputFmtHtml, OutputFmtWebapp:
		return ".html"
	case OutputFmtJson:
		return ".json"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// Structured reports formats which keep chapters as records rather than
// flat text.
func (o OutputFmt) Structured() bool {
	return o == OutputFmtJson || o == OutputFmtWebapp
}

// How runs of three or more newlines are treated in text output.
// ENUM(keep, one, two)
type NewlinesMode string

// Chapter title layout for plain text output.
// ENUM(inline, separated)
type TitleStyle string

// Naming scheme for chapter files in split mode.
// ENUM(same, chapter, custom)
type FileNameStyle string

// HTML document shell.
// ENUM(minimal, styled)
type HTMLStyle string

// Where converted trees are published.
// ENUM(none, local, s3)
type StorageKind string
