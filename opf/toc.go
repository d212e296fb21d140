package opf

import (
	"oebcore/bookmodel"
	"oebcore/bookreader"
	"oebcore/ncx"
)

// referenceResolver resolves a reference href the way the xhtml reader's
// alias table would, so both the spine-driven read and the TOC generator
// it runs after share exactly one notion of "which alias does this href
// mean" (§4.8 "Resolve each ContentHRef through the XHTML reader's
// normalizedReference").
type referenceResolver interface {
	NormalizedReference(href string) string
}

// GenerateTOC builds the book's contents tree from an NCX navigation map
// (§4.8). Points must already be ordered by play order (ncx.Reader's
// OrderedNavPoints). The stack-based ContentsTree API requires an
// explicit close before a new sibling opens and before returning to a
// shallower depth, so level tracks "the depth of the last opened node,
// or -1 if nothing is open"; encountering a point at or above that depth
// closes down to its parent first, and a point deeper than level+1 gets
// synthetic "..." placeholders for every skipped intermediate depth.
func GenerateTOC(br *bookreader.Reader, resolver referenceResolver, bm *bookmodel.BookModel, points []ncx.NavPoint) {
	level := -1
	for _, point := range points {
		idx := resolveIndex(resolver, bm, point.ContentHRef)

		for level >= point.Level {
			br.EndContentsParagraph()
			level--
		}
		for level+1 < point.Level {
			level++
			br.BeginContentsParagraph(bookmodel.SyntheticReference)
			br.AddContentsData("...")
		}
		level = point.Level
		br.BeginContentsParagraph(idx)
		br.AddContentsData(point.LabelText)
	}
	for level >= 0 {
		br.EndContentsParagraph()
		level--
	}
}

// GenerateGuideTOC builds a flat, single-level TOC from guide (or tour,
// if guide is empty) entries when the NCX navigation map is empty or
// absent (§4.8 "fall back to guide-TOC (or tour if guide empty)").
func GenerateGuideTOC(br *bookreader.Reader, resolver referenceResolver, bm *bookmodel.BookModel, guide []GuideRef, tour []TourSite) {
	entries := guide
	if len(entries) == 0 {
		for _, t := range tour {
			idx := resolveIndex(resolver, bm, t.Href)
			if idx == bookmodel.UnresolvedParagraph {
				continue
			}
			br.BeginContentsParagraph(idx)
			br.AddContentsData(t.Title)
			br.EndContentsParagraph()
		}
		return
	}
	for _, g := range entries {
		idx := resolveIndex(resolver, bm, g.Href)
		if idx == bookmodel.UnresolvedParagraph {
			continue
		}
		br.BeginContentsParagraph(idx)
		br.AddContentsData(g.Title)
		br.EndContentsParagraph()
	}
}

func resolveIndex(resolver referenceResolver, bm *bookmodel.BookModel, href string) int {
	if href == "" {
		return bookmodel.UnresolvedParagraph
	}
	ref := resolver.NormalizedReference(href)
	return bm.ResolveInternalHyperlink(ref).ParagraphIndex
}
