package opf

import "strings"

// ClassifyCover resolves the guide's cover reference per §4.7: a guide
// entry of type "other.ms-coverimage-standard" is always a single-image
// cover; type "cover" is a single-image cover only when the manifest
// records an image/* media type for its href, otherwise it names an
// XHTML cover page whose first embedded image the reader must promote.
func (d *Document) ClassifyCover() (href string, singleImage bool, ok bool) {
	for _, g := range d.Guide {
		switch g.Type {
		case "other.ms-coverimage-standard":
			return g.Href, true, true
		case "cover":
			mt, _ := d.MediaTypeFor(g.Href)
			return g.Href, strings.HasPrefix(mt, "image/"), true
		}
	}
	return "", false, false
}

// ResolveCover implements the full cover fallback chain restored from
// original_source/ (spec.md §4.7 only documents the guide path): first
// the guide reference (ClassifyCover), then a manifest item literally
// id="cover", then a manifest item literally id="cover-image".
func (d *Document) ResolveCover() (href string, singleImage bool, ok bool) {
	if href, singleImage, ok := d.ClassifyCover(); ok {
		return href, singleImage, ok
	}
	for _, id := range []string{"cover", "cover-image"} {
		if href, ok := d.HrefFor(id); ok {
			mt, _ := d.MediaTypeFor(href)
			return href, strings.HasPrefix(mt, "image/"), true
		}
	}
	return "", false, false
}
