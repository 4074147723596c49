package epub

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// opfPackage represents the OPF XML structure
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	UniqueID string      `xml:"unique-identifier,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

// opfMetadata represents the metadata section
type opfMetadata struct {
	Title       []string        `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creator     []opfCreator    `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Language    []string        `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifier  []opfIdentifier `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Publisher   []string        `xml:"http://purl.org/dc/elements/1.1/ publisher"`
	Date        []string        `xml:"http://purl.org/dc/elements/1.1/ date"`
	Description []string        `xml:"http://purl.org/dc/elements/1.1/ description"`
	Subject     []string        `xml:"http://purl.org/dc/elements/1.1/ subject"`
	Rights      []string        `xml:"http://purl.org/dc/elements/1.1/ rights"`
	Meta        []opfMeta       `xml:"meta"`
}

type opfCreator struct {
	Name string `xml:",chardata"`
	Role string `xml:"http://www.idpf.org/2007/opf role,attr"`
	Lang string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
	ID   string `xml:"id,attr"`
}

type opfIdentifier struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr"`
}

// opfMeta represents a meta element (EPUB 2.0 and 3.0)
type opfMeta struct {
	Name     string `xml:"name,attr"`
	Content  string `xml:"content,attr"` // EPUB 2.0: attribute value
	Value    string `xml:",chardata"`    // EPUB 3.0: element text content
	Property string `xml:"property,attr"`
	Refines  string `xml:"refines,attr"`
}

type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfSpine struct {
	Toc       string       `xml:"toc,attr"`
	Direction string       `xml:"page-progression-direction,attr"`
	ItemRefs  []opfItemRef `xml:"itemref"`
}

type opfItemRef struct {
	IDRef      string `xml:"idref,attr"`
	Linear     string `xml:"linear,attr"`
	Properties string `xml:"properties,attr"`
}

// ParseOPF parses a package document. opfDir is the archive directory that
// holds it (e.g. "OEBPS"); manifest hrefs are decoded and resolved against it.
func ParseOPF(content []byte, opfDir string) (*OPF, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse OPF XML: %w", err)
	}

	opf := &OPF{
		Version:   pkg.Version,
		Manifest:  make(map[string]ManifestItem),
		Direction: pkg.Spine.Direction,
	}

	opf.Metadata = parseMetadata(&pkg.Metadata, pkg.UniqueID)

	for _, item := range pkg.Manifest.Items {
		href, err := resolveHref(opfDir, item.Href)
		if err != nil {
			return nil, fmt.Errorf("manifest item %q: %w", item.ID, err)
		}
		opf.Manifest[item.ID] = ManifestItem{
			ID:         item.ID,
			Href:       href,
			MediaType:  item.MediaType,
			Properties: strings.Fields(item.Properties),
		}
		opf.ManifestOrder = append(opf.ManifestOrder, item.ID)
	}

	for _, ref := range pkg.Spine.ItemRefs {
		opf.Spine = append(opf.Spine, SpineItem{
			IDRef:      ref.IDRef,
			Linear:     ref.Linear != "no",
			Properties: strings.Fields(ref.Properties),
		})
	}

	if pkg.Spine.Toc != "" {
		if ncxItem, ok := opf.Manifest[pkg.Spine.Toc]; ok {
			opf.NCXPath = ncxItem.Href
		}
	}

	return opf, nil
}

// parseMetadata parses the metadata section
func parseMetadata(meta *opfMetadata, uniqueID string) Metadata {
	md := Metadata{
		Title:       first(meta.Title),
		Language:    first(meta.Language),
		Publisher:   first(meta.Publisher),
		Date:        first(meta.Date),
		Description: first(meta.Description),
		Subjects:    meta.Subject,
		Rights:      first(meta.Rights),
	}

	// Identifier (find the one marked as unique-identifier)
	for _, id := range meta.Identifier {
		if id.ID == uniqueID {
			md.Identifier = strings.TrimSpace(id.Value)
			break
		}
	}
	if md.Identifier == "" && len(meta.Identifier) > 0 {
		md.Identifier = strings.TrimSpace(meta.Identifier[0].Value)
	}

	for _, creator := range meta.Creator {
		md.Creators = append(md.Creators, Creator{
			Name: strings.TrimSpace(creator.Name),
			Role: creator.Role,
			Lang: creator.Lang,
		})
	}
	processCreatorRoles(&md, meta)

	for _, m := range meta.Meta {
		value := strings.TrimSpace(m.Value)
		switch {
		case m.Property == "dcterms:modified":
			md.Modified = value
		case m.Property == "rendition:layout":
			md.Layout = value
		case m.Property == "rendition:spread":
			md.Spread = value
		case m.Name == "cover" && md.CoverID == "":
			md.CoverID = m.Content
		}
	}

	return md
}

// processCreatorRoles applies EPUB 3.0 role refinements to creators.
func processCreatorRoles(md *Metadata, meta *opfMetadata) {
	creatorMap := make(map[string]int)
	for i, creator := range meta.Creator {
		if creator.ID != "" {
			creatorMap["#"+creator.ID] = i
		}
	}

	for _, m := range meta.Meta {
		if m.Property != "role" || m.Refines == "" {
			continue
		}
		if idx, ok := creatorMap[m.Refines]; ok {
			if m.Value != "" {
				md.Creators[idx].Role = m.Value
			} else {
				md.Creators[idx].Role = m.Content
			}
		}
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// resolveHref decodes a percent-encoded relative href and joins it to base.
func resolveHref(base, href string) (string, error) {
	href, _ = splitFragment(href)
	decoded, err := url.PathUnescape(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	return path.Join(base, decoded), nil
}
