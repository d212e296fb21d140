// Package xhtml drives a single XHTML spine document through the SAX
// driver, dispatching tags to a registered set of tag actions, applying
// matched CSS, and emitting entries into a bookreader.Reader (§4.5).
package xhtml

import (
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"oebcore/bookreader"
	"oebcore/css"
	"oebcore/encryption"
	"oebcore/saxdriver"
)

// ReadState is the reader's character-data routing mode (§4.5 "NOTHING |
// STYLE | BODY | VIDEO").
type ReadState int

const (
	StateNothing ReadState = iota
	StateStyle
	StateBody
	StateVideo
)

// FileOpener is the archive-like surface the reader needs: named-entry
// lookup and open, satisfied by *archive.Archive.
type FileOpener interface {
	Has(name string) bool
	Open(name string) (io.ReadCloser, error)
}

// frame is one open tag's entry on the tag-data stack: its tag name, id,
// class and attributes, whether it emitted a style entry, and whether
// display:none suppressed it.
type frame struct {
	tag, id, class string
	attrs          map[string]string

	styleOpened bool
	suppressed  bool
}

// Reader drives one XHTML document. Created fresh per readFile call and
// discarded on return (§9 "explicit per-read context object").
type Reader struct {
	log *zap.Logger

	br  *bookreader.Reader
	enc encryption.Map
	css *css.Parser

	aliases *AliasTable
	opener  FileOpener

	sheetCache map[string]*css.Stylesheet

	state     ReadState
	bodyCount int
	frames    []frame
	listNums  []int // top = current list's next number; 0 means an unordered list

	myReferenceDirName     string
	mySelfAlias            string
	myMarkNextImageAsCover bool

	docSheet *css.Stylesheet
	styleBuf strings.Builder

	emittedAny bool

	// pendingSpace and paragraphHasText carry whitespace-collapsing state
	// across CharacterData calls for the whole currently-open paragraph,
	// not just the current DOM text node, so an inline tag boundary (e.g.
	// "<b>bold </b>word") doesn't lose the inter-word space (§4.5
	// "consecutive whitespace collapses to a single space, leading
	// whitespace after a paragraph-start is dropped"). Reset wherever a
	// new paragraph is opened (see tagactions.go's pOpen/li/br actions).
	pendingSpace     bool
	paragraphHasText bool

	videoSources []string
}

// New creates an XHTML reader sharing css and the book reader across
// every spine file read during one pipeline run (so @font-face/TOC
// registrations and paragraph numbering accumulate correctly), but
// expecting readFile to be called once per document — aliases and the
// encryption map are pipeline-lifetime, the per-document frame/state
// fields reset at the start of each ReadFile.
func New(br *bookreader.Reader, enc encryption.Map, aliases *AliasTable, opener FileOpener, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{
		log:        log.Named("xhtml"),
		br:         br,
		enc:        enc,
		css:        css.NewParser(log),
		aliases:    aliases,
		opener:     opener,
		sheetCache: make(map[string]*css.Stylesheet),
	}
}

// MarkNextImageAsCover arranges for the first <img>/<image> encountered
// in the next ReadFile call to be emitted with isCover=true (§4.7 step 5a
// "if not, set markFirstImageAsCover on the XHTML reader").
func (r *Reader) MarkNextImageAsCover() { r.myMarkNextImageAsCover = true }

// ReadFile implements §4.5's entry point: assigns/looks up referenceName's
// alias, opens the file through the encryption map, resets per-document
// state, and drives the SAX parser. It returns false without attempting
// to parse when referenceName is listed as encrypted (§1 Non-goals: "No
// DRM breaking" — encrypted content is surfaced as unreadable, never
// decrypted) or on a fatal parse error that produced no content.
func (r *Reader) ReadFile(archivePath, referenceName string) (bool, error) {
	r.mySelfAlias = r.aliases.AliasFor(archivePath)
	r.myReferenceDirName = path.Dir(archivePath)
	r.state = StateNothing
	r.frames = nil
	r.listNums = nil
	r.emittedAny = false
	r.docSheet = &css.Stylesheet{}
	r.styleBuf.Reset()
	r.pendingSpace = false
	r.paragraphHasText = false

	if r.enc.Has(archivePath) {
		r.log.Debug("skipping encrypted spine file", zap.String("path", archivePath), zap.String("reference", referenceName))
		return false, nil
	}

	rc, err := r.opener.Open(archivePath)
	if err != nil {
		return false, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return false, err
	}

	if perr := saxdriver.Drive(data, r, saxdriver.Options{}); perr != nil {
		if !r.emittedAny {
			return false, nil
		}
	}
	return true, nil
}

// NormalizedReference resolves href against this document's directory,
// for hyperlink targets and <link>/<img> src attributes alike.
func (r *Reader) NormalizedReference(href string) string {
	return r.aliases.NormalizedReference(href, r.myReferenceDirName, r.mySelfAlias)
}

func (r *Reader) currentFrame() *frame {
	if len(r.frames) == 0 {
		return nil
	}
	return &r.frames[len(r.frames)-1]
}

func (r *Reader) cssFrames() []css.Frame {
	out := make([]css.Frame, len(r.frames))
	for i, f := range r.frames {
		out[i] = css.Frame{Tag: f.tag, Id: f.id, Class: f.class, Attrs: f.attrs}
	}
	return out
}

func (r *Reader) suppressed() bool {
	for _, f := range r.frames {
		if f.suppressed {
			return true
		}
	}
	return false
}

// StartElement implements saxdriver.Handler.
func (r *Reader) StartElement(space, name string, attrs []saxdriver.Attr) {
	f := frame{tag: name, attrs: make(map[string]string, len(attrs))}
	for _, a := range attrs {
		f.attrs[a.Name] = a.Value
		switch a.Name {
		case "id":
			f.id = a.Value
		case "class":
			f.class = a.Value
		}
	}
	r.frames = append(r.frames, f)

	action, ok := lookupAction(space, name)
	if !ok || !action.EnabledIn(r.state) {
		r.applyStyleForCurrentFrame()
		r.registerAnchorID(f.id)
		return
	}
	action.DoAtStart(r, attrs)
	r.applyStyleForCurrentFrame()
	r.registerAnchorID(f.id)
}

// registerAnchorID records id as resolving to the paragraph now open (or
// just closed), so an <a href="#id"> elsewhere in the book can later
// resolve to it (§4.3 "label → currentModel, currentParagraphIndex").
func (r *Reader) registerAnchorID(id string) {
	if id == "" || r.state != StateBody || !r.br.ParagraphOpen() {
		return
	}
	r.br.AddHyperlinkLabel(r.mySelfAlias + "#" + id)
}

// applyStyleForCurrentFrame computes and emits the style entry for the
// just-pushed frame, honoring display:none suppression and display:block
// mid-paragraph closure (§4.5 step 4).
func (r *Reader) applyStyleForCurrentFrame() {
	f := r.currentFrame()
	if f == nil || r.state != StateBody {
		return
	}
	inline := r.css.ParseDeclarationList([]byte(f.attrs["style"]))
	resolved := ComputeStyle(r.activeSheet(), r.cssFrames(), inline)

	if resolved.DisplayNone {
		f.suppressed = true
		return
	}
	if r.suppressed() {
		return
	}
	if resolved.DisplayBlock && r.br.ParagraphOpen() {
		r.br.RestartParagraph(false)
		r.pendingSpace = false
		r.paragraphHasText = false
	}
	if resolved.Entry.Mask != 0 {
		r.br.AddStyleEntry(resolved.Entry)
		f.styleOpened = true
	}
}

// EndElement implements saxdriver.Handler.
func (r *Reader) EndElement(space, name string) {
	f := r.currentFrame()
	wasSuppressed := f != nil && f.suppressed
	styleOpened := f != nil && f.styleOpened

	action, ok := lookupAction(space, name)
	if ok && action.EnabledIn(r.state) && !r.suppressedExcludingCurrent() {
		action.DoAtEnd(r)
	}
	if styleOpened && !wasSuppressed {
		r.br.AddStyleCloseEntry()
	}
	if len(r.frames) > 0 {
		r.frames = r.frames[:len(r.frames)-1]
	}
}

func (r *Reader) suppressedExcludingCurrent() bool {
	if len(r.frames) == 0 {
		return false
	}
	for _, f := range r.frames[:len(r.frames)-1] {
		if f.suppressed {
			return true
		}
	}
	return false
}

// CharacterData implements saxdriver.Handler (§4.5 "Character data").
func (r *Reader) CharacterData(text string) {
	switch r.state {
	case StateStyle:
		r.styleBuf.WriteString(text)
	case StateBody:
		if r.suppressed() {
			return
		}
		f := r.currentFrame()
		preformatted := f != nil && f.tag == "pre"
		if preformatted {
			r.emitPreformatted(text)
			return
		}
		collapsed := r.collapseWhitespace(text)
		if collapsed == "" {
			return
		}
		if err := r.br.AddText(collapsed); err == nil {
			r.emittedAny = true
		}
	case StateVideo, StateNothing:
		// ignored
	}
}

func (r *Reader) emitPreformatted(text string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			if r.br.AddText(line) == nil {
				r.emittedAny = true
			}
		}
		if i < len(lines)-1 {
			r.br.RestartParagraph(false)
		}
	}
}

// collapseWhitespace collapses consecutive whitespace to a single space
// across the whole paragraph's character-data stream, not just the
// current call's text, carrying pendingSpace/paragraphHasText on r so an
// inline tag boundary splitting one text run into several CharacterData
// calls doesn't lose the space between them (§4.5). Only whitespace
// still pending when the paragraph has emitted no text yet is dropped,
// matching "leading whitespace after a paragraph-start is dropped".
func (r *Reader) collapseWhitespace(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			r.pendingSpace = true
			continue
		}
		if r.pendingSpace {
			if r.paragraphHasText {
				b.WriteByte(' ')
			}
			r.pendingSpace = false
		}
		b.WriteRune(ch)
		r.paragraphHasText = true
	}
	return b.String()
}

// activeSheet returns the stylesheet accumulated for the current
// document via <link>/<style> processing.
func (r *Reader) activeSheet() *css.Stylesheet {
	if r.docSheet == nil {
		r.docSheet = &css.Stylesheet{}
	}
	return r.docSheet
}
