package xhtml

import "testing"

func TestAliasFor_AssignsIncreasingDecimalAliases(t *testing.T) {
	tab := NewAliasTable()
	a0 := tab.AliasFor("OEBPS/ch1.xhtml")
	a1 := tab.AliasFor("OEBPS/ch2.xhtml")
	if a0 != "0" || a1 != "1" {
		t.Fatalf("aliases = %q, %q, want 0, 1", a0, a1)
	}
	if again := tab.AliasFor("OEBPS/ch1.xhtml"); again != a0 {
		t.Fatalf("AliasFor is not idempotent: got %q, want %q", again, a0)
	}
}

func TestNormalizedReference_BareFragmentResolvesToSelf(t *testing.T) {
	tab := NewAliasTable()
	self := tab.AliasFor("OEBPS/ch1.xhtml")
	got := tab.NormalizedReference("#note1", "OEBPS", self)
	if got != self+"#note1" {
		t.Fatalf("NormalizedReference(#note1) = %q, want %q", got, self+"#note1")
	}
}

func TestNormalizedReference_CrossFileResolvesThroughAliasTable(t *testing.T) {
	tab := NewAliasTable()
	self := tab.AliasFor("OEBPS/ch1.xhtml")
	target := tab.AliasFor("OEBPS/ch2.xhtml")
	got := tab.NormalizedReference("ch2.xhtml#para3", "OEBPS", self)
	if got != target+"#para3" {
		t.Fatalf("NormalizedReference(ch2.xhtml#para3) = %q, want %q", got, target+"#para3")
	}
}

func TestNormalizedReference_UnresolvedFileKeepsArchivePath(t *testing.T) {
	tab := NewAliasTable()
	self := tab.AliasFor("OEBPS/ch1.xhtml")
	got := tab.NormalizedReference("missing.xhtml", "OEBPS", self)
	if got != "OEBPS/missing.xhtml" {
		t.Fatalf("NormalizedReference(missing.xhtml) = %q, want OEBPS/missing.xhtml", got)
	}
}

func TestNormalizedReference_NoFragmentOmitsHash(t *testing.T) {
	tab := NewAliasTable()
	self := tab.AliasFor("OEBPS/ch1.xhtml")
	target := tab.AliasFor("OEBPS/ch2.xhtml")
	got := tab.NormalizedReference("ch2.xhtml", "OEBPS", self)
	if got != target {
		t.Fatalf("NormalizedReference(ch2.xhtml) = %q, want %q", got, target)
	}
}
