// Package bookmodel holds the reading pipeline's assembled output: the
// Book metadata record and the BookModel that owns its text models,
// contents tree, internal-hyperlink table and font manager (§3, §4.3).
package bookmodel

import "path/filepath"

// Author is a display name paired with its sort key, e.g.
// ("Ursula K. Le Guin", "Le Guin, Ursula K.").
type Author struct {
	Name string
	Sort string
}

// UID is one of a book's declared unique identifiers, e.g. (isbn,
// "978-0-123456-78-9") or (uuid, a google/uuid value stringified).
type UID struct {
	Type string
	ID   string
}

// Book is the reading pipeline's metadata record. It is mutated while a
// plugin's readMetainfo/readUids/readLanguageAndEncoding steps run and is
// treated as immutable once the read completes (§3 "Mutable during
// reading; invariant after").
type Book struct {
	Title       string
	InnerTitle  string
	Language    string
	Encoding    string
	Authors     []Author
	Tags        []string // hierarchical path, outermost first
	UIDs        []UID
	SeriesTitle string
	SeriesIndex string

	FilePath string
	IsLocal  bool
}

// NewBook creates a Book for the file at path with IsLocal set from the
// isLocal argument (the plugin populates everything else during reading).
func NewBook(path string, isLocal bool) *Book {
	return &Book{FilePath: path, IsLocal: isLocal}
}

// CacheName derives the cache-key base for a book model from its file
// path: the local-book case (IsLocal) uses no cache key at all, since a
// locally-opened book isn't paginated to a shared cache directory the way
// a library entry is; remote/library entries key off the file's base name
// without extension (§3 "Name: cache key derived from the book file
// path... empty for local-book case").
func CacheName(b *Book) string {
	if b.IsLocal {
		return ""
	}
	base := filepath.Base(b.FilePath)
	return base[:len(base)-len(filepath.Ext(base))]
}
