package bookmodel

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"oebcore/alloc"
	"oebcore/textmodel"
)

// Label is an internal-hyperlink target: a reference to a text model plus
// a paragraph number within it. ParagraphIndex == -1 means unresolved
// (§3, §7 category 4).
type Label struct {
	Model          *textmodel.Model
	ParagraphIndex int
}

const UnresolvedParagraph = -1

// BookModel owns every text model a reading pipeline populates, plus the
// tables the host UI reads once the pipeline finishes (§3 "BookModel").
type BookModel struct {
	log *zap.Logger

	book      *Book
	cacheDir  string
	name      string
	blockSize int

	main      *textmodel.Model
	footnotes map[string]*textmodel.Model

	internalHyperlinks map[string]Label

	contents *ContentsTree
	fonts    *FontManager
	images   map[string]*Image
}

// New creates a BookModel for book, persisting its text models under
// cacheDir. blockSize is recorded on the model but not passed to any
// allocator; every allocator uses alloc.BlockSize.
func New(book *Book, cacheDir string, blockSize int, log *zap.Logger) *BookModel {
	if log == nil {
		log = zap.NewNop()
	}
	name := CacheName(book)
	bm := &BookModel{
		log:                log.Named("bookmodel"),
		book:               book,
		cacheDir:           cacheDir,
		name:               name,
		blockSize:          blockSize,
		footnotes:          make(map[string]*textmodel.Model),
		internalHyperlinks: make(map[string]Label),
		contents:           newContentsTree(),
		fonts:              newFontManager(),
	}
	bm.main = textmodel.New(bm.newAllocator("ncache"))
	return bm
}

func (bm *BookModel) newAllocator(suffix string) *alloc.Allocator {
	return alloc.New(bm.cacheDir, bm.name, suffix, "dat", bm.log)
}

// Book returns the metadata record this model was built for.
func (bm *BookModel) Book() *Book { return bm.book }

// Name is the cache-key base used for this model's block files (§3).
func (bm *BookModel) Name() string { return bm.name }

// CacheDir returns the directory this model's allocators write under.
func (bm *BookModel) CacheDir() string { return bm.cacheDir }

// Main returns the main body text model.
func (bm *BookModel) Main() *textmodel.Model { return bm.main }

// Footnote returns the text model registered for linkID, creating and
// persisting it under a per-footnote cache suffix on first use.
func (bm *BookModel) Footnote(linkID string) *textmodel.Model {
	if m, ok := bm.footnotes[linkID]; ok {
		return m
	}
	suffix := "fn" + slugifyID(linkID)
	m := textmodel.New(bm.newAllocator(suffix))
	bm.footnotes[linkID] = m
	return m
}

// FootnoteIDs returns every registered footnote link id.
func (bm *BookModel) FootnoteIDs() []string {
	ids := make([]string, 0, len(bm.footnotes))
	for id := range bm.footnotes {
		ids = append(ids, id)
	}
	return ids
}

// Contents returns the book's table-of-contents tree.
func (bm *BookModel) Contents() *ContentsTree { return bm.contents }

// Fonts returns the font manager.
func (bm *BookModel) Fonts() *FontManager { return bm.fonts }

// SetInternalHyperlink registers id → label, overwriting any prior
// registration (later registrations, e.g. from a later spine file with
// the same anchor, win — the pipeline reads spine order so this matches
// document order).
func (bm *BookModel) SetInternalHyperlink(id string, label Label) {
	bm.internalHyperlinks[id] = label
}

// ResolveInternalHyperlink looks up id, returning an unresolved Label
// (nil model, ParagraphIndex -1) if it was never registered (§7
// category 4: "Unresolved reference... Not a failure").
func (bm *BookModel) ResolveInternalHyperlink(id string) Label {
	if l, ok := bm.internalHyperlinks[id]; ok {
		return l
	}
	return Label{ParagraphIndex: UnresolvedParagraph}
}

// InternalHyperlinkIDs returns every registered anchor id, in no
// particular order.
func (bm *BookModel) InternalHyperlinkIDs() []string {
	ids := make([]string, 0, len(bm.internalHyperlinks))
	for id := range bm.internalHyperlinks {
		ids = append(ids, id)
	}
	return ids
}

// Flush flushes the main model and every footnote model (internal
// hyperlinks are kept in memory only), aggregating any failures so a caller sees
// every problem a single read produced rather than only the first.
func (bm *BookModel) Flush() error {
	var err error
	if e := bm.main.Flush(); e != nil {
		err = multierr.Append(err, fmt.Errorf("main text model: %w", e))
	}
	for id, m := range bm.footnotes {
		if e := m.Flush(); e != nil {
			err = multierr.Append(err, fmt.Errorf("footnote model %q: %w", id, e))
		}
	}
	return err
}

// NewSyntheticUID mints a UUID-based unique identifier for a plugin that
// has no declared one of its own (falls back when readUids finds nothing
// in the source file's own metadata).
func NewSyntheticUID() UID {
	return UID{Type: "uuid", ID: uuid.NewString()}
}

func slugifyID(id string) string {
	// Footnote link ids come straight from an href fragment and can carry
	// characters a block-file name on disk can't (slashes, colons,
	// non-ASCII); slug.Make keeps cache file names short and portable.
	return slug.Make(id)
}
