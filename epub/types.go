package epub

// ManifestItem is a single entry of the package manifest. Href is a path
// inside the archive (already resolved against package document location).
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties string
}

// FlowItem is a spine entry - a document in reading order. ID is empty when
// spine references item absent from manifest.
type FlowItem struct {
	ID     string
	Href   string
	Title  string
	Linear bool
}

// Metadata keeps book level information, every field is optional.
type Metadata struct {
	Title               string
	Creator             string
	CreatorFileAs       string
	Publisher           string
	Language            string
	Subject             []string
	Description         string
	Date                string
	ISBN                string
	UUID                string
	Cover               string // manifest id of the cover image
	BelongsToCollection string
	CollectionType      string
}

// TOCEntry is a navigation point. Href is archive path of the target with
// fragment preserved, ID is manifest id of the target document.
type TOCEntry struct {
	Title string
	Href  string
	ID    string
	Level int
	Order int
}
