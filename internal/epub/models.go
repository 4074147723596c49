package epub

// OPF represents a parsed package document.
type OPF struct {
	Version       string
	Metadata      Metadata
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in document order
	Spine         []SpineItem
	Direction     string // page-progression-direction
	NCXPath       string
}

// Metadata represents the metadata section of the OPF
type Metadata struct {
	Title       string
	Creators    []Creator
	Language    string
	Identifier  string
	Publisher   string
	Date        string
	Description string
	Subjects    []string
	Rights      string
	Modified    string // dcterms:modified
	Layout      string // rendition:layout
	Spread      string // rendition:spread
	CoverID     string // meta name="cover"
}

// Creator represents a creator (author, editor, etc.) of the book
type Creator struct {
	Name string
	Role string // e.g., "aut" for author, "edt" for editor
	Lang string // xml:lang attribute
}

// ManifestItem represents an item in the manifest. Href is the decoded
// archive path.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// HasProperty reports whether the item carries property p.
func (m ManifestItem) HasProperty(p string) bool {
	for _, prop := range m.Properties {
		if prop == p {
			return true
		}
	}
	return false
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef      string
	Linear     bool
	Properties []string
}
