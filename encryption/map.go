// Package encryption parses an EPUB's META-INF/encryption.xml (and
// rights.xml key identification) sidecars into a map from archive-
// relative path to the record describing how that entry is encrypted
// (§3 "EncryptionMap", §6 expected-input-formats).
package encryption

import (
	"net/url"
	"strings"

	"go.uber.org/zap"

	"oebcore/saxdriver"
)

// Info describes how one archive entry is encrypted: algorithm URI plus
// an optional key reference resolved from rights.xml.
type Info struct {
	Algorithm string
	KeyRef    string
}

// Map is read-only once built; a zero-value Map (never populated) behaves
// as "nothing in this archive is encrypted" (§4.7 step 1 "may be empty").
type Map struct {
	entries map[string]Info
}

// Has reports whether path has an encryption record.
func (m Map) Has(path string) bool {
	if m.entries == nil {
		return false
	}
	_, ok := m.entries[path]
	return ok
}

// Lookup returns path's encryption record, if any.
func (m Map) Lookup(path string) (Info, bool) {
	if m.entries == nil {
		return Info{}, false
	}
	i, ok := m.entries[path]
	return i, ok
}

// Paths returns every archive-relative path with an encryption record.
func (m Map) Paths() []string {
	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	return paths
}

// ParseEncryptionXML parses a META-INF/encryption.xml document's
// <EncryptedData> entries, each naming a CipherReference URI and an
// EncryptionMethod algorithm.
func ParseEncryptionXML(data []byte, log *zap.Logger) (Map, error) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &encryptionHandler{log: log.Named("encryption"), entries: make(map[string]Info)}
	if err := saxdriver.Drive(data, h, saxdriver.Options{}); err != nil {
		return Map{}, err
	}
	return Map{entries: h.entries}, nil
}

// MergeRightsXML augments m's entries with key references resolved from
// a META-INF/rights.xml document, matched by the rights document's own
// resource URIs.
func MergeRightsXML(m Map, data []byte, log *zap.Logger) (Map, error) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &rightsHandler{log: log.Named("encryption"), keysByURI: make(map[string]string)}
	if err := saxdriver.Drive(data, h, saxdriver.Options{}); err != nil {
		return m, err
	}
	if m.entries == nil {
		m.entries = make(map[string]Info)
	}
	for path, keyRef := range h.keysByURI {
		info := m.entries[path]
		info.KeyRef = keyRef
		m.entries[path] = info
	}
	return m, nil
}

type encryptionHandler struct {
	saxdriver.NopHandler
	log     *zap.Logger
	entries map[string]Info

	inCipherRef bool
	curURI      string
	curMethod   string
}

func (h *encryptionHandler) StartElement(_, name string, attrs []saxdriver.Attr) {
	switch name {
	case "EncryptedData":
		h.curURI = ""
		h.curMethod = ""
	case "EncryptionMethod":
		if v, ok := attrValue(attrs, "Algorithm"); ok {
			h.curMethod = v
		}
	case "CipherReference":
		if v, ok := attrValue(attrs, "URI"); ok {
			if decoded, err := url.QueryUnescape(v); err == nil {
				h.curURI = decoded
			} else {
				h.curURI = v
			}
		}
	}
}

func (h *encryptionHandler) EndElement(_, name string) {
	if name == "EncryptedData" && h.curURI != "" {
		h.entries[h.curURI] = Info{Algorithm: h.curMethod}
	}
}

// rightsHandler does a best-effort, vendor-agnostic scrape of rights.xml:
// it tracks the most recently seen resource URI and, when it later sees
// character data inside a key-identifying element, associates that text
// with that URI. Real rights.xml documents vary a great deal by DRM
// vendor; §4.7 only requires "key identification" be surfaced, not a
// specific scheme interpreted.
type rightsHandler struct {
	saxdriver.NopHandler
	log       *zap.Logger
	keysByURI map[string]string

	curURI string
}

func (h *rightsHandler) StartElement(_, name string, attrs []saxdriver.Attr) {
	switch name {
	case "resource", "DigitalResource", "item":
		if v, ok := attrValue(attrs, "uri"); ok {
			h.curURI = v
		} else if v, ok := attrValue(attrs, "URI"); ok {
			h.curURI = v
		}
	}
}

func (h *rightsHandler) CharacterData(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || h.curURI == "" {
		return
	}
	h.keysByURI[h.curURI] = trimmed
}

func attrValue(attrs []saxdriver.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}
