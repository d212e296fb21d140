// Package bookreader implements the writer side of a book model: a
// stateful driver over paragraph lifecycle, text-kind nesting, section
// markers, and hyperlink/image/contents registration (§4.3).
package bookreader

import (
	"fmt"

	"oebcore/bookmodel"
	"oebcore/textmodel"
)

// Reader drives a bookmodel.BookModel's text models as an XHTML (or other
// format) reader walks its source document. It holds no owning reference
// to the book model — it is created at the start of a read and discarded
// at its end (§9 design note "an explicit per-read context object").
type Reader struct {
	bm *bookmodel.BookModel

	target    *textmodel.Model
	kindStack []textmodel.Kind

	paragraphOpen bool
	paragraphKind textmodel.ParagraphKind
	styleDepth    uint8
}

// New creates a reader targeting bm's main text model.
func New(bm *bookmodel.BookModel) *Reader {
	return &Reader{bm: bm, target: bm.Main()}
}

// SetMainTextModel retargets subsequent writes to the main text model.
func (r *Reader) SetMainTextModel() { r.target = r.bm.Main() }

// SetFootnoteModel retargets subsequent writes to the footnote model
// registered for id, creating it if this is the first reference.
func (r *Reader) SetFootnoteModel(id string) { r.target = r.bm.Footnote(id) }

// Target returns the text model currently being written to.
func (r *Reader) Target() *textmodel.Model { return r.target }

// PushKind opens a text-kind control (e.g. bold, italic) on the target
// model and remembers it so a paragraph restart can re-open every
// currently active kind.
func (r *Reader) PushKind(k textmodel.Kind) {
	r.kindStack = append(r.kindStack, k)
	if r.paragraphOpen {
		r.target.AddControl(k, true)
	}
}

// PopKind closes the most recently pushed text-kind control. Popping with
// nothing open is a programming error (§4.3 "unmatched popKind is a
// programming error (fatal)").
func (r *Reader) PopKind() {
	if len(r.kindStack) == 0 {
		panic("bookreader: PopKind called with no open text-kind control")
	}
	k := r.kindStack[len(r.kindStack)-1]
	r.kindStack = r.kindStack[:len(r.kindStack)-1]
	if r.paragraphOpen {
		r.target.AddControl(k, false)
	}
}

// BeginParagraph opens a new paragraph of kind, re-opening every
// currently active text-kind control so nesting survives a paragraph
// restart (§4.3 "Stack snapshotted on paragraph start").
func (r *Reader) BeginParagraph(kind textmodel.ParagraphKind) {
	if r.paragraphOpen {
		panic("bookreader: BeginParagraph called while a paragraph is already open")
	}
	r.target.BeginParagraph(kind)
	r.paragraphKind = kind
	r.paragraphOpen = true
	for _, k := range r.kindStack {
		r.target.AddControl(k, true)
	}
}

// EndParagraph closes every currently active text-kind control (in
// reverse order) and finalizes the paragraph.
func (r *Reader) EndParagraph() {
	if !r.paragraphOpen {
		panic("bookreader: EndParagraph called with no open paragraph")
	}
	for i := len(r.kindStack) - 1; i >= 0; i-- {
		r.target.AddControl(r.kindStack[i], false)
	}
	r.target.EndParagraph()
	r.paragraphOpen = false
}

// ParagraphOpen reports whether a paragraph is currently open on the
// target model.
func (r *Reader) ParagraphOpen() bool { return r.paragraphOpen }

// CurrentParagraphIndex returns the index the open (or just-closed)
// paragraph will have / has in the target model.
func (r *Reader) CurrentParagraphIndex() int {
	n := r.target.ParagraphsNumber()
	if r.paragraphOpen {
		return n
	}
	return n - 1
}

// RestartParagraph ends the current paragraph and begins a new one of the
// same kind with the same active text-kind stack, optionally inserting a
// single blank regular paragraph between the two (§4.3 "restartParagraph
// (addEmptyLine)").
func (r *Reader) RestartParagraph(addEmptyLine bool) {
	kind := r.paragraphKind
	r.EndParagraph()
	if addEmptyLine {
		r.BeginParagraph(textmodel.Regular)
		r.EndParagraph()
	}
	r.BeginParagraph(kind)
}

func (r *Reader) insertMarkerParagraph(kind textmodel.ParagraphKind) {
	r.target.BeginParagraph(kind)
	r.target.EndParagraph()
}

// InsertEndOfSectionParagraph emits a zero-entry section-end marker.
func (r *Reader) InsertEndOfSectionParagraph() { r.insertMarkerParagraph(textmodel.SectionEnd) }

// InsertEncryptedSectionParagraph emits a zero-entry marker standing in
// for a spine file that failed to read because it is encrypted (§7
// category 2).
func (r *Reader) InsertEncryptedSectionParagraph() {
	r.insertMarkerParagraph(textmodel.EncryptedSection)
}

// InsertEndOfTextParagraph emits a zero-entry end-of-text marker.
func (r *Reader) InsertEndOfTextParagraph() { r.insertMarkerParagraph(textmodel.EndOfText) }

// AddImage registers an image blob with the book model, deduplicated by
// name.
func (r *Reader) AddImage(name, mimeType string, data []byte) {
	r.bm.RegisterImage(name, mimeType, data)
}

// AddImageReference emits an image-reference entry into the open
// paragraph.
func (r *Reader) AddImageReference(name string, vOffset int16, isCover bool) {
	r.target.AddImage(name, vOffset, isCover)
}

// AddHyperlinkControl emits a single hyperlink-control entry carrying its
// type and label (the link's target key); no matching end entry is
// written, and the link's visible text goes through AddText separately.
func (r *Reader) AddHyperlinkControl(htype textmodel.HyperlinkType, label string) {
	r.target.AddHyperlinkControl(textmodel.KindHyperlink, htype, label)
}

// AddHyperlinkLabel registers label as resolving to CurrentParagraphIndex()
// of the target model. When modelID names a footnote, the label records
// that footnote model instead, still with the target's paragraph index.
func (r *Reader) AddHyperlinkLabel(label string, modelID ...string) {
	model := r.target
	if len(modelID) > 0 && modelID[0] != "" {
		model = r.bm.Footnote(modelID[0])
	}
	idx := r.CurrentParagraphIndex()
	r.bm.SetInternalHyperlink(label, bookmodel.Label{Model: model, ParagraphIndex: idx})
}

// BeginContentsParagraph opens a new contents-tree node with the given
// paragraph reference (or bookmodel.SyntheticReference for a "..."
// placeholder).
func (r *Reader) BeginContentsParagraph(reference int) {
	r.bm.Contents().BeginContentsParagraph(reference)
}

// AddContentsData appends text to the currently open contents node.
func (r *Reader) AddContentsData(text string) {
	r.bm.Contents().AddContentsData(text)
}

// EndContentsParagraph closes the currently open contents node.
func (r *Reader) EndContentsParagraph() {
	r.bm.Contents().EndContentsParagraph()
}

// AddStyleEntry emits a style entry, tracking nesting depth so a matching
// AddStyleCloseEntry can be driven by the XHTML reader's own tag-close
// bookkeeping without this package needing to mirror its frame stack.
func (r *Reader) AddStyleEntry(entry textmodel.StyleEntry) uint8 {
	depth := r.styleDepth
	r.target.AddStyleEntry(entry, depth)
	r.styleDepth++
	return depth
}

// AddStyleCloseEntry emits a style close-entry and pops one level of
// style nesting. Closing with nothing open is a programming error.
func (r *Reader) AddStyleCloseEntry() {
	if r.styleDepth == 0 {
		panic("bookreader: AddStyleCloseEntry called with no open style entry")
	}
	r.styleDepth--
	r.target.AddStyleCloseEntry()
}

// AddText writes a text run into the open paragraph, erroring if none is
// open (a programmer error in any caller, but surfaced rather than
// panicking since tag actions may call it from deeply nested dispatch).
func (r *Reader) AddText(s string) error {
	if !r.paragraphOpen {
		return fmt.Errorf("bookreader: AddText called with no open paragraph")
	}
	r.target.AddText(s)
	return nil
}

// AddFixedHSpace emits a fixed horizontal-space entry.
func (r *Reader) AddFixedHSpace(n uint8) { r.target.AddFixedHSpace(n) }

// AddBidiReset emits a bidi-reset marker.
func (r *Reader) AddBidiReset() { r.target.AddBidiReset() }

// AddVideoEntry emits a video entry with its resolved source list.
func (r *Reader) AddVideoEntry(sources []string) { r.target.AddVideoEntry(sources) }
