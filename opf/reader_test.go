package opf

import "testing"

const sampleOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" unique-identifier="BookId">
  <metadata/>
  <manifest>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="cover" href="cover.jpg" media-type="image/jpeg"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
  <guide>
    <reference type="cover" title="Cover" href="cover.jpg"/>
  </guide>
  <tour>
    <site title="Chapter One" href="ch1.xhtml"/>
  </tour>
</package>`

func TestParse_ManifestSpineGuideTour(t *testing.T) {
	doc, err := Parse([]byte(sampleOPF), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if href, ok := doc.HrefFor("ch1"); !ok || href != "ch1.xhtml" {
		t.Fatalf("HrefFor(ch1) = %q, %v", href, ok)
	}
	if mt, ok := doc.MediaTypeFor("ch1.xhtml"); !ok || mt != "application/xhtml+xml" {
		t.Fatalf("MediaTypeFor(ch1.xhtml) = %q, %v", mt, ok)
	}
	if len(doc.Spine) != 2 || doc.Spine[0] != "ch1.xhtml" || doc.Spine[1] != "ch2.xhtml" {
		t.Fatalf("Spine = %v, want [ch1.xhtml ch2.xhtml]", doc.Spine)
	}
	if doc.TocID != "ncx" {
		t.Fatalf("TocID = %q, want ncx", doc.TocID)
	}
	if len(doc.Guide) != 1 || doc.Guide[0].Type != "cover" || doc.Guide[0].Href != "cover.jpg" {
		t.Fatalf("Guide = %+v", doc.Guide)
	}
	if len(doc.Tour) != 1 || doc.Tour[0].Title != "Chapter One" {
		t.Fatalf("Tour = %+v", doc.Tour)
	}
}

func TestParse_ItemrefWithUnknownIdrefIsSkipped(t *testing.T) {
	const opf = `<package><manifest><item id="a" href="a.xhtml" media-type="application/xhtml+xml"/></manifest>
	<spine><itemref idref="a"/><itemref idref="missing"/></spine></package>`
	doc, err := Parse([]byte(opf), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Spine) != 1 || doc.Spine[0] != "a.xhtml" {
		t.Fatalf("Spine = %v, want [a.xhtml]", doc.Spine)
	}
}
