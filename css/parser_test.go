package css_test

import (
	"testing"

	"go.uber.org/zap"

	"oebcore/css"
)

func TestParser_ElementSelector(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`p { text-indent: 1em; }`))

	rules := sheet.Rules()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Selector.Element != "p" {
		t.Errorf("expected element 'p', got %q", rules[0].Selector.Element)
	}
	val, ok := rules[0].GetProperty("text-indent")
	if !ok || val.Number != 1 || val.Unit != "em" {
		t.Errorf("expected 1em, got %+v", val)
	}
}

func TestParser_IdAndAttrSelector(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`h2#intro { font-weight: bold; } a[href] { color: blue; } link[type=text/css] { }`))

	rules := sheet.Rules()
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	if rules[0].Selector.Id != "intro" || rules[0].Selector.Element != "h2" {
		t.Errorf("expected h2#intro, got %+v", rules[0].Selector)
	}
	if len(rules[1].Selector.Attrs) != 1 || rules[1].Selector.Attrs[0].Name != "href" || rules[1].Selector.Attrs[0].HasValue {
		t.Errorf("expected bare [href] attr selector, got %+v", rules[1].Selector.Attrs)
	}
	if len(rules[2].Selector.Attrs) != 1 || rules[2].Selector.Attrs[0].Value != "text/css" {
		t.Errorf("expected [type=text/css], got %+v", rules[2].Selector.Attrs)
	}
}

func TestParser_DescendantSelector(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`.section-title h2.header { page-break-before: always; }`))

	rules := sheet.Rules()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	sel := rules[0].Selector
	if sel.Element != "h2" || sel.Class != "header" {
		t.Errorf("expected h2.header, got %+v", sel)
	}
	if sel.Ancestor == nil || sel.Ancestor.Class != "section-title" {
		t.Fatalf("expected ancestor .section-title, got %+v", sel.Ancestor)
	}
}

func TestSelector_MatchesDescendantAtAnyDepth(t *testing.T) {
	sel := css.Selector{Element: "code", Ancestor: &css.Selector{Element: "p"}}

	frames := []css.Frame{
		{Tag: "body"},
		{Tag: "p"},
		{Tag: "span"},
		{Tag: "code"},
	}
	if !sel.Matches(frames) {
		t.Error("expected 'p code' to match <p><span><code> even though span intervenes")
	}

	noMatch := []css.Frame{{Tag: "body"}, {Tag: "div"}, {Tag: "code"}}
	if sel.Matches(noMatch) {
		t.Error("expected no match without a 'p' ancestor")
	}
}

func TestSelector_MatchesClassAndId(t *testing.T) {
	sel := css.Selector{Element: "p", Class: "note", Id: "x"}
	frames := []css.Frame{{Tag: "p", Id: "x", Class: "note highlighted"}}
	if !sel.Matches(frames) {
		t.Error("expected compound selector to match frame carrying extra classes")
	}
	frames2 := []css.Frame{{Tag: "p", Id: "y", Class: "note"}}
	if sel.Matches(frames2) {
		t.Error("expected id mismatch to fail the match")
	}
}

func TestSelector_Specificity(t *testing.T) {
	id := css.Selector{Id: "x"}
	class := css.Selector{Class: "x"}
	elem := css.Selector{Element: "p"}

	if !class.ComputeSpecificity().Less(id.ComputeSpecificity()) {
		t.Error("expected id selector to outrank class selector")
	}
	if !elem.ComputeSpecificity().Less(class.ComputeSpecificity()) {
		t.Error("expected class selector to outrank element selector")
	}
}

func TestParser_Import(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`@import "other.css"; @import url("another.css"); p { margin: 0; }`))

	imports := sheet.Imports()
	if len(imports) != 2 || imports[0] != "other.css" || imports[1] != "another.css" {
		t.Fatalf("unexpected imports: %v", imports)
	}
}

func TestParser_FontFace(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`@font-face { font-family: "MyFont"; src: url("fonts/myfont.woff2"); font-weight: bold; font-style: italic; }`))

	faces := sheet.FontFaces()
	if len(faces) != 1 {
		t.Fatalf("expected 1 font-face, got %d", len(faces))
	}
	if faces[0].Family != "MyFont" || faces[0].Weight != "bold" || faces[0].Style != "italic" {
		t.Errorf("unexpected font-face: %+v", faces[0])
	}
}

func TestParser_GroupedSelectors(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`h2, h3, h4 { font-size: 120%; }`))

	rules := sheet.Rules()
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	for i, want := range []string{"h2", "h3", "h4"} {
		if rules[i].Selector.Element != want {
			t.Errorf("rule %d: expected %q, got %q", i, want, rules[i].Selector.Element)
		}
	}
}

func TestParser_UnknownSelectorWarnsNotFails(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`p > span { color: red; } p { margin: 0; }`))

	if len(sheet.Warnings) == 0 {
		t.Error("expected a warning for the unsupported child combinator")
	}
	if len(sheet.Rules()) != 1 {
		t.Fatalf("expected the valid rule to still parse, got %d rules", len(sheet.Rules()))
	}
}

func TestParser_DeclarationList(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	props := p.ParseDeclarationList([]byte(`display: none; color: red`))

	if v, ok := props["display"]; !ok || v.Keyword != "none" {
		t.Errorf("expected display:none, got %+v", props)
	}
}

func TestStylesheet_MergePreservesImportedLowerPriority(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	base := p.Parse([]byte(`p { margin: 1em; }`))
	imported := p.Parse([]byte(`p { margin: 2em; }`))

	base.Merge(imported)

	rules := base.Rules()
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules after merge, got %d", len(rules))
	}
	// Imported rule comes first; the importing sheet's own rule (applied
	// later, same specificity) wins ties by source order.
	if val, _ := rules[1].GetProperty("margin"); val.Raw != "1em" {
		t.Errorf("expected the importing sheet's own rule last, got %+v", rules[1])
	}
}
