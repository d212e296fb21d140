// Package saxdriver replays a parsed XML document as push-style SAX
// events (§2 "XML SAX driver contract"): start-tag, end-tag and
// character-data callbacks in document order. It is the shared contract
// the NCX, OPF, XHTML and CSS-import readers are all driven through.
//
// The document is parsed once, up front, with beevik/etree (a full DOM
// parser); the driver then walks the resulting tree's children in their
// original order and replays it as a stream of callbacks. This gives
// every consumer SAX's simple, stateful push model without this module
// needing its own streaming XML tokenizer — etree already exposes child
// nodes (elements and character data alike) in document order via
// Element.Child, which is exactly what a document-order replay needs.
package saxdriver

import (
	"fmt"

	"github.com/beevik/etree"
)

// Attr is one attribute on a start-tag event, with its namespace prefix
// (if any) kept separate from its local name.
type Attr struct {
	Space string
	Name  string
	Value string
}

// Handler receives SAX events. Implementations that don't care about a
// given namespace mode or external DTDs can embed NopHandler and
// override only the callbacks they need.
type Handler interface {
	// StartElement is called when an opening tag is encountered. space is
	// the element's namespace prefix (empty if none); attrs preserves
	// document order.
	StartElement(space, name string, attrs []Attr)
	// EndElement is called when a closing tag is encountered, once for
	// every StartElement, even for self-closing elements.
	EndElement(space, name string)
	// CharacterData is called for each run of text content between tags.
	// The driver does not coalesce adjacent runs across comments/PIs.
	CharacterData(text string)
}

// NopHandler is an embeddable no-op Handler; consumers override only the
// methods they need.
type NopHandler struct{}

func (NopHandler) StartElement(_, _ string, _ []Attr) {}
func (NopHandler) EndElement(_, _ string)              {}
func (NopHandler) CharacterData(_ string)              {}

// Options controls how a document is parsed before replay.
type Options struct {
	// ExternalDTD lists external DTD/entity file search directories; etree
	// performs no DTD resolution of its own, so this is recorded for
	// parity with §2's contract but currently unused — kept as a documented
	// no-op rather than silently dropped, see DESIGN.md.
	ExternalDTD []string
	// Namespaces, when true, splits a qualified tag/attribute name into
	// (prefix, local) at StartElement/EndElement; when false, the raw
	// (possibly prefixed) tag string is reported as name with an empty
	// space, matching a reader that wants namespace-unaware tag matching
	// (e.g. matching "svg:image" literally).
	Namespaces bool
}

// Drive parses data as XML and replays it against h in document order.
// A malformed document is reported as a parse error (§7 category 2). The
// whole document is parsed before replay starts, so h receives no events
// for a document that fails to parse.
func Drive(data []byte, h Handler, opts Options) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("saxdriver: parse error: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("saxdriver: document has no root element")
	}
	walkElement(root, h, opts)
	return nil
}

func walkElement(el *etree.Element, h Handler, opts Options) {
	space, name := splitName(el.Space, el.Tag, opts.Namespaces)
	attrs := make([]Attr, len(el.Attr))
	for i, a := range el.Attr {
		aSpace, aName := splitName(a.Space, a.Key, opts.Namespaces)
		attrs[i] = Attr{Space: aSpace, Name: aName, Value: a.Value}
	}
	h.StartElement(space, name, attrs)
	for _, child := range el.Child {
		switch c := child.(type) {
		case *etree.Element:
			walkElement(c, h, opts)
		case *etree.CharData:
			h.CharacterData(c.Data)
		}
	}
	h.EndElement(space, name)
}

func splitName(space, name string, namespaces bool) (string, string) {
	if namespaces {
		return space, name
	}
	if space != "" {
		return "", space + ":" + name
	}
	return "", name
}
