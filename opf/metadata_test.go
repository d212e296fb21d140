package opf

import (
	"testing"

	"oebcore/bookmodel"
)

const sampleMetadata = `<?xml version="1.0"?>
<package>
<metadata>
  <dc:title>The Left Hand of Darkness</dc:title>
  <dc:creator>Ursula K. Le Guin</dc:creator>
  <dc:language>en</dc:language>
  <dc:subject>Science Fiction</dc:subject>
  <dc:identifier scheme="ISBN">978-0-123456-78-9</dc:identifier>
  <meta name="calibre:series" content="Hainish Cycle"/>
  <meta name="calibre:series_index" content="4"/>
</metadata>
</package>`

func TestParseMetadata_ReadsDublinCoreAndCalibreSeries(t *testing.T) {
	md, err := ParseMetadata([]byte(sampleMetadata), nil)
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}
	if md.Title != "The Left Hand of Darkness" {
		t.Fatalf("Title = %q", md.Title)
	}
	if len(md.Creators) != 1 || md.Creators[0] != "Ursula K. Le Guin" {
		t.Fatalf("Creators = %v", md.Creators)
	}
	if md.Language != "en" {
		t.Fatalf("Language = %q", md.Language)
	}
	if len(md.Subjects) != 1 || md.Subjects[0] != "Science Fiction" {
		t.Fatalf("Subjects = %v", md.Subjects)
	}
	if len(md.Identifiers) != 1 || md.Identifiers[0].Scheme != "ISBN" || md.Identifiers[0].Value != "978-0-123456-78-9" {
		t.Fatalf("Identifiers = %+v", md.Identifiers)
	}
	if md.SeriesTitle != "Hainish Cycle" || md.SeriesIndex != "4" {
		t.Fatalf("Series = %q %q", md.SeriesTitle, md.SeriesIndex)
	}
}

func TestPopulateBook_CopiesFieldsOntoBook(t *testing.T) {
	md := &Metadata{Title: "T", Creators: []string{"A"}, Language: "en", Subjects: []string{"x"}, SeriesTitle: "S", SeriesIndex: "1"}
	book := bookmodel.NewBook("b.epub", false)
	PopulateBook(book, md)

	if book.Title != "T" || book.Language != "en" || book.SeriesTitle != "S" || book.SeriesIndex != "1" {
		t.Fatalf("book = %+v", book)
	}
	if len(book.Authors) != 1 || book.Authors[0].Name != "A" || book.Authors[0].Sort != "A" {
		t.Fatalf("Authors = %+v", book.Authors)
	}
	if len(book.Tags) != 1 || book.Tags[0] != "x" {
		t.Fatalf("Tags = %v", book.Tags)
	}
}

func TestPopulateUIDs_UsesDeclaredIdentifiers(t *testing.T) {
	md := &Metadata{Identifiers: []Identifier{{Scheme: "ISBN", Value: "123"}}}
	book := bookmodel.NewBook("b.epub", false)
	PopulateUIDs(book, md)

	if len(book.UIDs) != 1 || book.UIDs[0].Type != "isbn" || book.UIDs[0].ID != "123" {
		t.Fatalf("UIDs = %+v", book.UIDs)
	}
}

func TestPopulateUIDs_SynthesizesUUIDWhenNoneDeclared(t *testing.T) {
	md := &Metadata{}
	book := bookmodel.NewBook("b.epub", false)
	PopulateUIDs(book, md)

	if len(book.UIDs) != 1 || book.UIDs[0].Type != "uuid" || book.UIDs[0].ID == "" {
		t.Fatalf("UIDs = %+v, want one synthesized uuid", book.UIDs)
	}
}
