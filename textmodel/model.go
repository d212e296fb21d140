package textmodel

import (
	"fmt"
	"unicode/utf16"

	"oebcore/alloc"
)

// Model is the append-only paragraph text model (§4.2): the book reader
// drives it paragraph by paragraph, entry by entry, and it persists every
// entry through its allocator.
type Model struct {
	alloc *alloc.Allocator

	startAddr     []alloc.Address
	paragraphLen  []int
	textSize      []int
	paragraphKind []ParagraphKind

	open             bool
	curEntries       int
	curTextBytes     int
	curKind          ParagraphKind
	pendingStart     alloc.Address
	havePendingStart bool

	runningTextBytes int

	flushed bool
}

// New creates a text model persisting through alloc.
func New(a *alloc.Allocator) *Model {
	return &Model{alloc: a}
}

// ParagraphsNumber returns the number of completed paragraphs.
func (m *Model) ParagraphsNumber() int { return len(m.paragraphKind) }

// ParagraphKind returns paragraph i's kind.
func (m *Model) ParagraphKind(i int) ParagraphKind { return m.paragraphKind[i] }

// ParagraphLength returns the number of entries in paragraph i.
func (m *Model) ParagraphLength(i int) int { return m.paragraphLen[i] }

// TextSize returns the cumulative text byte count through paragraph i.
func (m *Model) TextSize(i int) int { return m.textSize[i] }

// StartAddress returns the allocator address paragraph i's entries begin at.
func (m *Model) StartAddress(i int) alloc.Address { return m.startAddr[i] }

// Failed reports whether the underlying allocator has hit a sticky write
// failure.
func (m *Model) Failed() bool { return m.alloc.Failed() }

// BeginParagraph opens a new paragraph of the given kind. Its start
// address is captured when its first entry is written, or at EndParagraph
// if it gets none, so a zero-entry paragraph (section markers, §4.3) still
// has a valid, distinct start.
func (m *Model) BeginParagraph(kind ParagraphKind) {
	if m.open {
		panic("textmodel: BeginParagraph called while a paragraph is already open")
	}
	m.open = true
	m.curKind = kind
	m.curEntries = 0
	m.curTextBytes = 0
}

// EndParagraph finalizes the open paragraph, appending its metadata to the
// parallel arrays (§3 invariant: arrays stay equal length, textSize
// monotonic).
func (m *Model) EndParagraph() {
	if !m.open {
		panic("textmodel: EndParagraph called with no open paragraph")
	}
	if !m.havePendingStart {
		m.pendingStart = m.alloc.Position()
		m.havePendingStart = true
		// A paragraph with no entries still takes one byte of the block
		// stream, so the next paragraph's start address differs from its own.
		m.alloc.Allocate(1)
	}
	m.runningTextBytes += m.curTextBytes
	m.startAddr = append(m.startAddr, m.pendingStart)
	m.paragraphLen = append(m.paragraphLen, m.curEntries)
	m.textSize = append(m.textSize, m.runningTextBytes)
	m.paragraphKind = append(m.paragraphKind, m.curKind)
	m.open = false
	m.havePendingStart = false
}

// markStart captures the paragraph's start address the first time it is
// called within an open paragraph, whether that is its first entry write
// or EndParagraph finding none: either way the address is fixed to the
// allocator's position before anything of this paragraph is written.
func (m *Model) markStart() {
	if !m.open {
		panic("textmodel: entry added with no open paragraph")
	}
	if !m.havePendingStart {
		m.pendingStart = m.alloc.Position()
		m.havePendingStart = true
	}
}

// AddText appends a text run, UCS-2 encoded per §3 ("text runs are stored
// as UCS-2 lengths + raw code units").
func (m *Model) AddText(s string) {
	m.markStart()
	units := utf16.Encode([]rune(s))
	n := 1 + 2 + 2*len(units)
	_, buf := m.alloc.Allocate(n)
	buf[0] = byte(EntryText)
	alloc.WriteUInt16(buf[1:3], uint16(len(units)))
	for i, u := range units {
		alloc.WriteUInt16(buf[3+2*i:5+2*i], u)
	}
	m.curEntries++
	m.curTextBytes += len(s)
}

// AddControl appends a control-start or control-end entry for kind.
func (m *Model) AddControl(kind Kind, isStart bool) {
	m.markStart()
	_, buf := m.alloc.Allocate(2)
	if isStart {
		buf[0] = byte(EntryControlStart)
	} else {
		buf[0] = byte(EntryControlEnd)
	}
	buf[1] = byte(kind)
	m.curEntries++
}

// AddHyperlinkControl appends a hyperlink-control entry carrying its kind,
// type and label (the link's target key, not its visible text).
func (m *Model) AddHyperlinkControl(kind Kind, htype HyperlinkType, label string) {
	m.markStart()
	units := utf16.Encode([]rune(label))
	n := 3 + 2 + 2*len(units)
	_, buf := m.alloc.Allocate(n)
	buf[0] = byte(EntryHyperlinkControl)
	buf[1] = byte(kind)
	buf[2] = byte(htype)
	alloc.WriteUInt16(buf[3:5], uint16(len(units)))
	for i, u := range units {
		alloc.WriteUInt16(buf[5+2*i:7+2*i], u)
	}
	m.curEntries++
}

// AddImage appends an image-reference entry.
func (m *Model) AddImage(name string, vShift int16, isCover bool) {
	m.markStart()
	units := utf16.Encode([]rune(name))
	n := 1 + 2 + 2*len(units) + 2 + 1
	_, buf := m.alloc.Allocate(n)
	off := 0
	buf[off] = byte(EntryImage)
	off++
	alloc.WriteUInt16(buf[off:off+2], uint16(len(units)))
	off += 2
	for _, u := range units {
		alloc.WriteUInt16(buf[off:off+2], u)
		off += 2
	}
	alloc.WriteUInt16(buf[off:off+2], uint16(vShift))
	off += 2
	if isCover {
		buf[off] = 1
	}
	m.curEntries++
}

// AddStyleEntry appends a style entry at the given nesting depth.
func (m *Model) AddStyleEntry(entry StyleEntry, depth uint8) {
	m.markStart()
	name := utf16.Encode([]rune(entry.FontFamily))
	n := 2 + 4 + 2*9 + 1 + 1 + 1 + 2*len(name)
	_, buf := m.alloc.Allocate(n)
	off := 0
	buf[off] = byte(EntryStyle)
	off++
	buf[off] = depth
	off++
	alloc.WriteUInt32(buf[off:off+4], uint32(entry.Mask))
	off += 4
	for _, v := range []int16{
		entry.LeftMargin, entry.RightMargin, entry.TopMargin, entry.BottomMargin,
		entry.FirstLineIndent, entry.FontSize, entry.VerticalAlign, entry.LineSpacePercent,
	} {
		alloc.WriteUInt16(buf[off:off+2], uint16(v))
		off += 2
	}
	buf[off] = byte(entry.Alignment)<<4 | byte(entry.Display)&0x0F
	off++
	buf[off] = byte(entry.PageBreakBefore)<<4 | byte(entry.PageBreakAfter)&0x0F
	off++
	if entry.Bold {
		buf[off] |= 1
	}
	if entry.Italic {
		buf[off] |= 2
	}
	off++
	alloc.WriteUInt16(buf[off:off+2], uint16(len(name)))
	off += 2
	for _, u := range name {
		alloc.WriteUInt16(buf[off:off+2], u)
		off += 2
	}
	m.curEntries++
}

// AddStyleCloseEntry appends a close marker for the most recently opened
// style entry.
func (m *Model) AddStyleCloseEntry() {
	m.markStart()
	_, buf := m.alloc.Allocate(1)
	buf[0] = byte(EntryStyleClose)
	m.curEntries++
}

// AddFixedHSpace appends a fixed horizontal-space entry of n units.
func (m *Model) AddFixedHSpace(n uint8) {
	m.markStart()
	_, buf := m.alloc.Allocate(2)
	buf[0] = byte(EntryFixedHSpace)
	buf[1] = n
	m.curEntries++
}

// AddBidiReset appends a bidi-reset marker.
func (m *Model) AddBidiReset() {
	m.markStart()
	_, buf := m.alloc.Allocate(1)
	buf[0] = byte(EntryBidiReset)
	m.curEntries++
}

// AddVideoEntry appends a video entry with its resolved source list.
func (m *Model) AddVideoEntry(sources []string) {
	m.markStart()
	n := 1 + 2
	encoded := make([][]uint16, len(sources))
	for i, s := range sources {
		encoded[i] = utf16.Encode([]rune(s))
		n += 2 + 2*len(encoded[i])
	}
	_, buf := m.alloc.Allocate(n)
	off := 0
	buf[off] = byte(EntryVideo)
	off++
	alloc.WriteUInt16(buf[off:off+2], uint16(len(sources)))
	off += 2
	for _, units := range encoded {
		alloc.WriteUInt16(buf[off:off+2], uint16(len(units)))
		off += 2
		for _, u := range units {
			alloc.WriteUInt16(buf[off:off+2], u)
			off += 2
		}
	}
	m.curEntries++
}

// Flush persists any remaining allocator block and makes the model
// immutable. Idempotent, matching the allocator's own idempotent Flush.
func (m *Model) Flush() error {
	if m.open {
		return fmt.Errorf("textmodel: Flush called with an unclosed paragraph")
	}
	if err := m.alloc.Flush(); err != nil {
		return err
	}
	m.flushed = true
	return nil
}
