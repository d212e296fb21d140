package bookmodel

import "testing"

func newTestModel(t *testing.T) *BookModel {
	t.Helper()
	book := NewBook("/library/some-novel.epub", false)
	return New(book, t.TempDir(), 0, nil)
}

func TestCacheName_LocalBookHasNoName(t *testing.T) {
	b := NewBook("/tmp/opened.epub", true)
	if got := CacheName(b); got != "" {
		t.Fatalf("CacheName(local) = %q, want empty", got)
	}
}

func TestCacheName_RemoteBookUsesBaseWithoutExtension(t *testing.T) {
	b := NewBook("/library/some-novel.epub", false)
	if got := CacheName(b); got != "some-novel" {
		t.Fatalf("CacheName = %q, want %q", got, "some-novel")
	}
}

func TestBookModel_FootnoteModelsAreDistinctAndStable(t *testing.T) {
	bm := newTestModel(t)
	a := bm.Footnote("fn1")
	b := bm.Footnote("fn2")
	again := bm.Footnote("fn1")
	if a == b {
		t.Fatalf("distinct footnote ids returned the same model")
	}
	if a != again {
		t.Fatalf("Footnote not stable across calls for the same id")
	}
}

func TestBookModel_UnresolvedHyperlinkIsNotAFailure(t *testing.T) {
	bm := newTestModel(t)
	label := bm.ResolveInternalHyperlink("missing")
	if label.ParagraphIndex != UnresolvedParagraph || label.Model != nil {
		t.Fatalf("unresolved label = %+v, want paragraph -1 and nil model", label)
	}
}

func TestBookModel_ResolvedHyperlinkRoundTrips(t *testing.T) {
	bm := newTestModel(t)
	bm.Main().BeginParagraph(0)
	bm.Main().AddText("target")
	bm.Main().EndParagraph()
	bm.SetInternalHyperlink("ch1", Label{Model: bm.Main(), ParagraphIndex: 0})
	got := bm.ResolveInternalHyperlink("ch1")
	if got.ParagraphIndex != 0 || got.Model != bm.Main() {
		t.Fatalf("resolved label = %+v", got)
	}
}

func TestBookModel_FlushAggregatesAllModels(t *testing.T) {
	bm := newTestModel(t)
	bm.Main().BeginParagraph(0)
	bm.Main().AddText("hello")
	bm.Main().EndParagraph()
	fn := bm.Footnote("fn1")
	fn.BeginParagraph(0)
	fn.AddText("note")
	fn.EndParagraph()
	if err := bm.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestContentsTree_LevelSkipInsertsPlaceholders(t *testing.T) {
	tree := newContentsTree()
	tree.BeginContentsParagraph(0)
	tree.AddContentsData("Part I")
	tree.BeginContentsParagraph(SyntheticReference)
	tree.AddContentsData("...")
	tree.BeginContentsParagraph(5)
	tree.AddContentsData("Deep")
	tree.EndContentsParagraph()
	tree.EndContentsParagraph()
	tree.EndContentsParagraph()

	if tree.Depth() != 0 {
		t.Fatalf("Depth() = %d, want 0 after closing every opened node", tree.Depth())
	}
	top := tree.Root().Children
	if len(top) != 1 || top[0].Text != "Part I" {
		t.Fatalf("top-level children = %+v", top)
	}
	mid := top[0].Children
	if len(mid) != 1 || mid[0].Reference != SyntheticReference || mid[0].Text != "..." {
		t.Fatalf("synthetic placeholder = %+v", mid)
	}
	leaf := mid[0].Children
	if len(leaf) != 1 || leaf[0].Text != "Deep" || leaf[0].Reference != 5 {
		t.Fatalf("leaf node = %+v", leaf)
	}
}

func TestFontManager_RegistersFourSlotsIndependently(t *testing.T) {
	fm := newFontManager()
	fm.Register("Georgia", FontNormal, FontFileInfo{Path: "fonts/georgia.ttf"})
	fm.Register("Georgia", FontBold, FontFileInfo{Path: "fonts/georgia-bold.ttf"})
	entry := fm.Lookup("Georgia")
	if entry == nil {
		t.Fatalf("Lookup(Georgia) = nil")
	}
	if entry.Slots[FontNormal].Path != "fonts/georgia.ttf" {
		t.Fatalf("normal slot = %+v", entry.Slots[FontNormal])
	}
	if entry.Slots[FontItalic] != nil {
		t.Fatalf("italic slot should be unset, got %+v", entry.Slots[FontItalic])
	}
}
