package opf

import (
	"strings"

	"go.uber.org/zap"

	"oebcore/bookmodel"
	"oebcore/saxdriver"
)

// Identifier is one OPF <dc:identifier scheme="..."> entry.
type Identifier struct {
	Scheme string
	Value  string
}

// Metadata is the package document's <metadata> block, mapped onto the
// Dublin Core elements and the Calibre series convention a complete OEB
// reader populates a Book from (supplementing spec.md §3's Book fields,
// which name the fields but not which OPF elements fill them).
type Metadata struct {
	Title       string
	Creators    []string
	Language    string
	Subjects    []string
	Description string
	Identifiers []Identifier
	SeriesTitle string
	SeriesIndex string
}

type metadataReader struct {
	md *Metadata

	inMetadata bool
	curElem    string
	curScheme  string
	curText    strings.Builder
}

// ParseMetadata parses an OPF document's <metadata> block in isolation
// (the manifest/spine/guide/tour reader ignores it entirely, since the
// two concerns need different per-element state machines).
func ParseMetadata(data []byte, log *zap.Logger) (*Metadata, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &metadataReader{md: &Metadata{}}
	if err := saxdriver.Drive(data, r, saxdriver.Options{}); err != nil {
		return nil, err
	}
	return r.md, nil
}

func (r *metadataReader) StartElement(_, name string, attrs []saxdriver.Attr) {
	local := localName(name)
	switch local {
	case "metadata":
		r.inMetadata = true
		return
	case "meta":
		if !r.inMetadata {
			return
		}
		// Calibre's series convention: <meta name="calibre:series"
		// content="..."/> and <meta name="calibre:series_index"
		// content=".../>, since OPF2 has no native series element.
		metaName, _ := attrValue(attrs, "name")
		content, _ := attrValue(attrs, "content")
		switch metaName {
		case "calibre:series":
			r.md.SeriesTitle = content
		case "calibre:series_index":
			r.md.SeriesIndex = content
		}
		return
	}
	if !r.inMetadata {
		return
	}
	r.curElem = local
	r.curScheme, _ = attrValue(attrs, "scheme")
	r.curText.Reset()
}

func (r *metadataReader) EndElement(_, name string) {
	local := localName(name)
	switch local {
	case "metadata":
		r.inMetadata = false
		return
	case "meta":
		return
	}
	if !r.inMetadata {
		return
	}
	text := strings.TrimSpace(r.curText.String())
	switch local {
	case "title":
		if r.md.Title == "" {
			r.md.Title = text
		}
	case "creator":
		if text != "" {
			r.md.Creators = append(r.md.Creators, text)
		}
	case "language":
		if r.md.Language == "" {
			r.md.Language = text
		}
	case "subject":
		if text != "" {
			r.md.Subjects = append(r.md.Subjects, text)
		}
	case "description":
		if r.md.Description == "" {
			r.md.Description = text
		}
	case "identifier":
		if text != "" {
			r.md.Identifiers = append(r.md.Identifiers, Identifier{Scheme: r.curScheme, Value: text})
		}
	}
	r.curElem = ""
}

func (r *metadataReader) CharacterData(text string) {
	if r.inMetadata && r.curElem != "" {
		r.curText.WriteString(text)
	}
}

// PopulateBook copies md's title/creator/language/subject/series fields
// onto book, mirroring the plugin registry's readMetainfo step (§4.9).
// Author sort keys are left equal to the display name: OPF has no
// structured "file-as" equivalent the way MARC records do, and
// opf:file-as (when present) is an attribute this minimal mapping does
// not need, since no operation in this reader sorts by author.
func PopulateBook(book *bookmodel.Book, md *Metadata) {
	if md.Title != "" {
		book.Title = md.Title
	}
	for _, c := range md.Creators {
		book.Authors = append(book.Authors, bookmodel.Author{Name: c, Sort: c})
	}
	if md.Language != "" {
		book.Language = md.Language
	}
	book.Tags = append(book.Tags, md.Subjects...)
	book.SeriesTitle = md.SeriesTitle
	book.SeriesIndex = md.SeriesIndex
}

// PopulateUIDs appends md's dc:identifier entries to book, synthesizing a
// uuid identifier if none were declared — the plugin registry's readUids
// step (§4.9), kept separate from PopulateBook since the two are distinct
// entries in the plugin interface.
func PopulateUIDs(book *bookmodel.Book, md *Metadata) {
	for _, id := range md.Identifiers {
		typ := id.Scheme
		if typ == "" {
			typ = "uuid"
		}
		book.UIDs = append(book.UIDs, bookmodel.UID{Type: strings.ToLower(typ), ID: id.Value})
	}
	if len(book.UIDs) == 0 {
		uid := bookmodel.NewSyntheticUID()
		book.UIDs = append(book.UIDs, bookmodel.UID{Type: uid.Type, ID: uid.ID})
	}
}
