package textmodel

import (
	"testing"

	"oebcore/alloc"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	return New(alloc.New(t.TempDir(), "body", "", "dat", nil))
}

func TestModel_TextRoundTrips(t *testing.T) {
	m := newTestModel(t)
	m.BeginParagraph(Regular)
	m.AddControl(KindBold, true)
	m.AddText("hello world")
	m.AddControl(KindBold, false)
	m.EndParagraph()
	if err := m.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if got := m.ParagraphsNumber(); got != 1 {
		t.Fatalf("ParagraphsNumber = %d, want 1", got)
	}
	entries, err := m.DecodeParagraph(0)
	if err != nil {
		t.Fatalf("DecodeParagraph: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[1].Kind != EntryText || entries[1].Text != "hello world" {
		t.Fatalf("entries[1] = %+v, want text %q", entries[1], "hello world")
	}
	if entries[0].ControlKind != KindBold || entries[2].ControlKind != KindBold {
		t.Fatalf("control entries don't match: %+v / %+v", entries[0], entries[2])
	}
}

func TestModel_ZeroEntryParagraphGetsDistinctStart(t *testing.T) {
	m := newTestModel(t)
	m.BeginParagraph(SectionEnd)
	m.EndParagraph()
	m.BeginParagraph(Regular)
	m.AddText("x")
	m.EndParagraph()
	if err := m.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if m.ParagraphLength(0) != 0 {
		t.Fatalf("ParagraphLength(0) = %d, want 0", m.ParagraphLength(0))
	}
	if m.StartAddress(0) == m.StartAddress(1) {
		t.Fatalf("zero-entry paragraph start address collides with next paragraph's")
	}
}

func TestModel_TextSizeMonotonic(t *testing.T) {
	m := newTestModel(t)
	words := []string{"alpha", "beta", "gamma"}
	for _, w := range words {
		m.BeginParagraph(Regular)
		m.AddText(w)
		m.EndParagraph()
	}
	if err := m.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	prev := -1
	for i := 0; i < m.ParagraphsNumber(); i++ {
		size := m.TextSize(i)
		if size <= prev {
			t.Fatalf("textSize not monotonic at paragraph %d: %d <= %d", i, size, prev)
		}
		prev = size
	}
}

func TestModel_FlushIsIdempotent(t *testing.T) {
	m := newTestModel(t)
	m.BeginParagraph(Regular)
	m.AddText("abc")
	m.EndParagraph()
	if err := m.Flush(); err != nil {
		t.Fatalf("first Flush: %v", err)
	}
	if err := m.Flush(); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
}

func TestModel_StyleEntryRoundTrips(t *testing.T) {
	m := newTestModel(t)
	style := StyleEntry{
		Mask:       FeatureBold | FeatureFontFamily | FeatureAlignment,
		Bold:       true,
		FontFamily: "Georgia",
		Alignment:  AlignCenter,
	}
	m.BeginParagraph(Regular)
	m.AddStyleEntry(style, 2)
	m.AddText("styled")
	m.AddStyleCloseEntry()
	m.EndParagraph()
	if err := m.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	entries, err := m.DecodeParagraph(0)
	if err != nil {
		t.Fatalf("DecodeParagraph: %v", err)
	}
	got := entries[0]
	if got.Kind != EntryStyle || got.StyleDepth != 2 {
		t.Fatalf("style entry = %+v", got)
	}
	if !got.Style.Bold || got.Style.FontFamily != "Georgia" || got.Style.Alignment != AlignCenter {
		t.Fatalf("decoded style mismatch: %+v", got.Style)
	}
	if entries[2].Kind != EntryStyleClose {
		t.Fatalf("expected trailing style close, got %+v", entries[2])
	}
}

func TestModel_EntriesSpanningBlockBoundary(t *testing.T) {
	dir := t.TempDir()
	m := New(alloc.New(dir, "body", "", "dat", nil))
	// Force many small paragraphs so the underlying allocator crosses a
	// block boundary (§3 BlockSize = 131072 bytes; 20000 text records of
	// 11 bytes each fill two blocks).
	for i := 0; i < 20000; i++ {
		m.BeginParagraph(Regular)
		m.AddText("word")
		m.EndParagraph()
	}
	if err := m.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	for i := 0; i < m.ParagraphsNumber(); i++ {
		entries, err := m.DecodeParagraph(i)
		if err != nil {
			t.Fatalf("DecodeParagraph(%d): %v", i, err)
		}
		if len(entries) != 1 || entries[0].Text != "word" {
			t.Fatalf("paragraph %d decoded wrong: %+v", i, entries)
		}
	}
}
