// Package textmodel implements the per-paragraph-stream append writer and
// decoder: an append-only sequence of paragraphs, each a sequence of typed
// entries, persisted through a cached block allocator.
package textmodel

// ParagraphKind tags a paragraph with its role in the text stream.
type ParagraphKind uint8

const (
	Regular ParagraphKind = iota
	SectionEnd
	EncryptedSection
	ExternalHyperlink
	InternalHyperlink
	BookSynopsis
	EndOfText
)

// Kind is a text-kind control: a run of text enclosed between a
// control-start and control-end entry pair.
type Kind uint8

const (
	KindRegular Kind = iota
	KindBold
	KindItalic
	KindEmphasis
	KindStrong
	KindSuperscript
	KindSubscript
	KindCode
	KindCitation
	KindStrikethrough
	KindUnderline
	KindSmall
	KindHyperlink
)

// HyperlinkType distinguishes a hyperlink control's target kind.
type HyperlinkType uint8

const (
	HyperlinkInternal HyperlinkType = iota
	HyperlinkExternal
	HyperlinkFootnote
)

// Alignment is the text-align style feature's value.
type Alignment uint8

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
	AlignJustify
)

// Display is the display style feature's value.
type Display uint8

const (
	DisplayInline Display = iota
	DisplayBlock
	DisplayListItem
	DisplayNone
)

// PageBreak is the page-break-before/after style feature's value.
type PageBreak uint8

const (
	PageBreakAuto PageBreak = iota
	PageBreakAlways
	PageBreakAvoid
)

// StyleFeature is a bitmask selecting which fields of a StyleEntry are
// active; only features present in the mask were set by a matched CSS
// declaration (§4.2 "packs the entry's feature mask and active values").
type StyleFeature uint32

const (
	FeatureLeftMargin StyleFeature = 1 << iota
	FeatureRightMargin
	FeatureTopMargin
	FeatureBottomMargin
	FeatureFirstLineIndent
	FeatureAlignment
	FeatureFontFamily
	FeatureFontSize
	FeatureBold
	FeatureItalic
	FeatureDisplay
	FeaturePageBreakBefore
	FeaturePageBreakAfter
	FeatureVerticalAlign
	FeatureLineSpace
)

// StyleEntry is the computed style applied to an open tag (§4.5 "Emit a
// style-entry for non-suppressed frames").
type StyleEntry struct {
	Mask StyleFeature

	LeftMargin, RightMargin     int16
	TopMargin, BottomMargin     int16
	FirstLineIndent             int16
	Alignment                   Alignment
	FontFamily                  string
	FontSize                    int16
	Bold, Italic                bool
	Display                     Display
	PageBreakBefore             PageBreak
	PageBreakAfter              PageBreak
	VerticalAlign               int16
	LineSpacePercent            int16
}

// EntryKind tags the variant stored inline in an allocator record.
type EntryKind uint8

const (
	EntryText EntryKind = iota
	EntryControlStart
	EntryControlEnd
	EntryImage
	EntryHyperlinkControl
	EntryStyle
	EntryStyleClose
	EntryFixedHSpace
	EntryBidiReset
	EntryVideo
)

// Entry is a decoded, tagged record from the paragraph stream, used by
// readers and by DecodeParagraph for round-trip verification.
type Entry struct {
	Kind EntryKind

	Text string // EntryText

	ControlKind   Kind          // EntryControlStart, EntryControlEnd
	HyperlinkType HyperlinkType // EntryHyperlinkControl

	ImageName   string // EntryImage
	ImageVShift int16  // EntryImage
	ImageCover  bool   // EntryImage

	HyperlinkKind Kind   // EntryHyperlinkControl
	Label         string // EntryHyperlinkControl

	Style      StyleEntry // EntryStyle
	StyleDepth uint8      // EntryStyle

	HSpaceCount uint8 // EntryFixedHSpace

	VideoSources []string // EntryVideo
}
