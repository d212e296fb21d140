// Package opf parses an EPUB's content.opf package document and drives
// the full reading pipeline over it: manifest/spine/guide/tour, cover
// classification, and the end-to-end readBook sequence (§4.7, §4.8).
package opf

import (
	"strings"

	"go.uber.org/zap"

	"oebcore/saxdriver"
)

// ManifestItem is one manifest <item id href media-type>.
type ManifestItem struct {
	ID        string
	Href      string
	MediaType string
}

// GuideRef is one guide <reference type title href>.
type GuideRef struct {
	Type  string
	Title string
	Href  string
}

// TourSite is one tour <site title href>.
type TourSite struct {
	Title string
	Href  string
}

// Document is the parsed content.opf package document.
type Document struct {
	IDToHref        map[string]string
	HrefToMediatype map[string]string
	Spine           []string // resolved hrefs, in spine order
	TocID           string   // manifest id of the NCX file, from spine's toc attribute
	Guide           []GuideRef
	Tour            []TourSite
}

// HrefFor resolves a manifest id to its href.
func (d *Document) HrefFor(id string) (string, bool) {
	href, ok := d.IDToHref[id]
	return href, ok
}

// MediaTypeFor returns the media type registered for href, if any.
func (d *Document) MediaTypeFor(href string) (string, bool) {
	mt, ok := d.HrefToMediatype[href]
	return mt, ok
}

// state is the OPF reader's section state machine (§4.7 "NONE | MANIFEST
// | SPINE | GUIDE | TOUR").
type state int

const (
	stateNone state = iota
	stateManifest
	stateSpine
	stateGuide
	stateTour
)

type reader struct {
	log *zap.Logger
	doc *Document

	state state
}

// Parse parses an OPF document's manifest, spine, guide and tour
// sections.
func Parse(data []byte, log *zap.Logger) (*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &reader{
		log: log.Named("opf"),
		doc: &Document{
			IDToHref:        make(map[string]string),
			HrefToMediatype: make(map[string]string),
		},
	}
	if err := saxdriver.Drive(data, r, saxdriver.Options{}); err != nil {
		return nil, err
	}
	return r.doc, nil
}

func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func (r *reader) StartElement(_, name string, attrs []saxdriver.Attr) {
	switch localName(name) {
	case "manifest":
		r.state = stateManifest
	case "spine":
		r.state = stateSpine
		if v, ok := attrValue(attrs, "toc"); ok {
			r.doc.TocID = v
		}
	case "guide":
		r.state = stateGuide
	case "tour":
		r.state = stateTour
	case "item":
		if r.state != stateManifest {
			return
		}
		id, _ := attrValue(attrs, "id")
		href, _ := attrValue(attrs, "href")
		mt, _ := attrValue(attrs, "media-type")
		if id != "" && href != "" {
			r.doc.IDToHref[id] = href
			r.doc.HrefToMediatype[href] = mt
		}
	case "itemref":
		if r.state != stateSpine {
			return
		}
		idref, _ := attrValue(attrs, "idref")
		if idref == "" {
			return
		}
		if href, ok := r.doc.IDToHref[idref]; ok {
			r.doc.Spine = append(r.doc.Spine, href)
		} else {
			r.log.Warn("spine itemref has no matching manifest item", zap.String("idref", idref))
		}
	case "reference":
		if r.state != stateGuide {
			return
		}
		typ, _ := attrValue(attrs, "type")
		title, _ := attrValue(attrs, "title")
		href, _ := attrValue(attrs, "href")
		r.doc.Guide = append(r.doc.Guide, GuideRef{Type: typ, Title: title, Href: href})
	case "site":
		if r.state != stateTour {
			return
		}
		title, _ := attrValue(attrs, "title")
		href, _ := attrValue(attrs, "href")
		r.doc.Tour = append(r.doc.Tour, TourSite{Title: title, Href: href})
	}
}

func (r *reader) EndElement(_, name string) {
	switch localName(name) {
	case "manifest", "spine", "guide", "tour":
		r.state = stateNone
	}
}

func (r *reader) CharacterData(string) {}

func attrValue(attrs []saxdriver.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}
