package css

import (
	"strings"
	"unicode"
)

// Value represents a parsed CSS property value.
type Value struct {
	Raw     string  // Original CSS value string (e.g., "1.2em", "bold", "#ff0000")
	Number  float64 // Numeric value if applicable
	Unit    string  // Unit if applicable: "em", "px", "%", "pt", etc.
	Keyword string  // Keyword if applicable: "bold", "italic", "center", etc.
}

// IsNumeric returns true if the value has a numeric component.
func (v Value) IsNumeric() bool {
	if v.Unit != "" {
		return true
	}
	if v.Number != 0 && v.Keyword == "" {
		return true
	}
	if v.Raw != "" && v.Keyword == "" {
		firstChar := rune(v.Raw[0])
		if unicode.IsDigit(firstChar) || firstChar == '.' || firstChar == '-' || firstChar == '+' {
			return true
		}
	}
	return false
}

// IsKeyword returns true if the value is a keyword (no numeric component).
func (v Value) IsKeyword() bool {
	return v.Keyword != "" && v.Unit == ""
}

// PseudoElement represents which pseudo-element a rule applies to.
type PseudoElement int

const (
	PseudoNone PseudoElement = iota
	PseudoBefore
	PseudoAfter
)

// AttrSelector is an attribute-presence or attribute-equality test, e.g.
// "[href]" (HasValue=false) or "[type=text/css]" (HasValue=true).
type AttrSelector struct {
	Name     string
	Value    string
	HasValue bool
}

// Frame is one open tag on the XHTML reader's ancestor stack: its tag name,
// class list, id, and attribute map, as seen at matching time.
type Frame struct {
	Tag   string
	Id    string
	Class string
	Attrs map[string]string
}

// Selector is a parsed CSS selector: a compound (element/class/id/attrs),
// optionally preceded by an ancestor compound joined by a descendant
// combinator (whitespace). Multi-level descendant chains recurse through
// Ancestor.
type Selector struct {
	Raw      string
	Element  string
	Class    string
	Id       string
	Attrs    []AttrSelector
	Pseudo   PseudoElement
	Ancestor *Selector
}

// IsSimple reports whether this selector's rightmost compound carries any
// matchable component.
func (s Selector) IsSimple() bool {
	return s.Element != "" || s.Class != "" || s.Id != "" || len(s.Attrs) > 0
}

// IsDescendant reports whether this selector has an ancestor combinator.
func (s Selector) IsDescendant() bool {
	return s.Ancestor != nil
}

// Specificity is the CSS (id-count, class/attr-count, element-count) triple,
// summed across the whole selector chain (every compound contributes).
type Specificity struct {
	IDs      int
	Classes  int
	Elements int
}

// Less reports whether s has lower precedence than other (used to break
// ties when multiple rules match the same element: higher specificity wins,
// and among equal specificity the later rule in source order wins).
func (s Specificity) Less(other Specificity) bool {
	if s.IDs != other.IDs {
		return s.IDs < other.IDs
	}
	if s.Classes != other.Classes {
		return s.Classes < other.Classes
	}
	return s.Elements < other.Elements
}

func (s Selector) specificity() Specificity {
	var sp Specificity
	cur := &s
	for cur != nil {
		if cur.Id != "" {
			sp.IDs++
		}
		sp.Classes += len(cur.Attrs)
		if cur.Class != "" {
			sp.Classes++
		}
		if cur.Element != "" {
			sp.Elements++
		}
		cur = cur.Ancestor
	}
	return sp
}

// ComputeSpecificity returns the selector's specificity triple.
func (s Selector) ComputeSpecificity() Specificity { return s.specificity() }

// Matches reports whether the selector matches the innermost frame of
// frames, an ancestor stack ordered root-first. A descendant ancestor
// compound may match any enclosing frame, not only the immediate parent.
func (s Selector) Matches(frames []Frame) bool {
	return matchChain(&s, frames)
}

func matchChain(sel *Selector, frames []Frame) bool {
	if len(frames) == 0 {
		return false
	}
	cur := frames[len(frames)-1]
	if !compoundMatches(sel, cur) {
		return false
	}
	if sel.Ancestor == nil {
		return true
	}
	for i := len(frames) - 1; i >= 1; i-- {
		if matchChain(sel.Ancestor, frames[:i]) {
			return true
		}
	}
	return false
}

func compoundMatches(sel *Selector, f Frame) bool {
	if sel.Element != "" && !strings.EqualFold(sel.Element, f.Tag) {
		return false
	}
	if sel.Id != "" && sel.Id != f.Id {
		return false
	}
	if sel.Class != "" {
		if !hasClass(f.Class, sel.Class) {
			return false
		}
	}
	for _, a := range sel.Attrs {
		v, ok := f.Attrs[a.Name]
		if !ok {
			return false
		}
		if a.HasValue && v != a.Value {
			return false
		}
	}
	return true
}

func hasClass(classAttr, want string) bool {
	for c := range strings.FieldsSeq(classAttr) {
		if c == want {
			return true
		}
	}
	return false
}

// DescendantBaseName returns the name used to index this selector's
// rightmost compound in a tag/class/id-keyed rule table.
func (s Selector) DescendantBaseName() string {
	switch {
	case s.Id != "":
		return "#" + s.Id
	case s.Class != "":
		return "." + s.Class
	case s.Element != "":
		return s.Element
	default:
		return s.Raw
	}
}

// Rule is a single CSS rule: selector plus its declared properties.
type Rule struct {
	Selector   Selector
	Properties map[string]Value
	SourceLine int
}

// GetProperty returns the value for a property, or empty Value if not found.
func (r Rule) GetProperty(name string) (Value, bool) {
	v, ok := r.Properties[name]
	return v, ok
}

// FontFace represents an @font-face declaration, used to populate a book's
// font manager with embedded-font file references.
type FontFace struct {
	Family string
	Src    string
	Style  string
	Weight string
}

// StylesheetItem is a single top-level item in a stylesheet. Exactly one of
// Rule, FontFace, or Import is non-nil.
type StylesheetItem struct {
	Rule     *Rule
	FontFace *FontFace
	Import   *string
}

// Stylesheet is a parsed CSS stylesheet, in source order.
type Stylesheet struct {
	Items    []StylesheetItem
	Warnings []string
}

// Imports returns all @import URLs from the stylesheet in source order.
func (s *Stylesheet) Imports() []string {
	var urls []string
	for _, item := range s.Items {
		if item.Import != nil {
			urls = append(urls, *item.Import)
		}
	}
	return urls
}

// FontFaces returns all named @font-face declarations in source order.
func (s *Stylesheet) FontFaces() []FontFace {
	var faces []FontFace
	for _, item := range s.Items {
		if item.FontFace != nil && item.FontFace.Family != "" {
			faces = append(faces, *item.FontFace)
		}
	}
	return faces
}

// Rules returns all plain rules in source order, skipping imports and
// font-faces.
func (s *Stylesheet) Rules() []Rule {
	var rules []Rule
	for _, item := range s.Items {
		if item.Rule != nil {
			rules = append(rules, *item.Rule)
		}
	}
	return rules
}

// Merge places other's items before s's own, so that s's own declarations
// win ties at equal specificity (source-order tie-break), the
// way an importing sheet's own rules take priority over its @import'd
// sheets (§4.4: "imported sheets compose before the importing sheet's own
// rules").
func (s *Stylesheet) Merge(other *Stylesheet) {
	if other == nil {
		return
	}
	merged := make([]StylesheetItem, 0, len(other.Items)+len(s.Items))
	merged = append(merged, other.Items...)
	merged = append(merged, s.Items...)
	s.Items = merged
	s.Warnings = append(s.Warnings, other.Warnings...)
}
