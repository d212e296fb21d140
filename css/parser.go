package css

import (
	"bytes"
	"maps"
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into structured rules, built on the same
// tokenizer the teacher uses for its inline-style attribute parsing.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses a whole stylesheet's text into a Stylesheet. source, if
// given, identifies the sheet for debug logging only.
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("parsing stylesheet", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	var currentSelectors []string

	for {
		gt, _, tdata := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if parser.Err() != nil && parser.Err().Error() != "EOF" {
				p.log.Debug("stylesheet parse error", zap.Error(parser.Err()))
			}
			return sheet

		case css.BeginAtRuleGrammar:
			atRule := string(tdata)
			switch atRule {
			case "@font-face":
				ff := p.parseFontFace(parser)
				sheet.Items = append(sheet.Items, StylesheetItem{FontFace: &ff})
			default:
				p.skipAtRuleBlock(parser)
				p.log.Debug("skipping at-rule", zap.String("rule", atRule))
			}

		case css.AtRuleGrammar:
			atRule := string(tdata)
			if atRule == "@import" {
				if url := extractImportURL(parser.Values()); url != "" {
					sheet.Items = append(sheet.Items, StylesheetItem{Import: &url})
					p.log.Debug("parsed @import", zap.String("url", url))
				}
			}

		case css.BeginRulesetGrammar, css.QualifiedRuleGrammar:
			currentSelectors = p.parseSelectorGroup(tdata, parser.Values())
		}

		if gt == css.BeginRulesetGrammar {
			props := p.parseDeclarations(parser)
			for _, selStr := range currentSelectors {
				sel := p.parseSelector(selStr, sheet)
				if sel.IsSimple() {
					propsCopy := make(map[string]Value, len(props))
					maps.Copy(propsCopy, props)
					rule := Rule{Selector: sel, Properties: propsCopy}
					sheet.Items = append(sheet.Items, StylesheetItem{Rule: &rule})
				}
			}
			currentSelectors = nil
		}
	}
}

// ParseDeclarationList parses the contents of a style="..." attribute: a
// single declaration block with no selector, per §4.4's "single-declaration
// parser" mode, sharing the same declaration tokenizer as the whole-sheet
// parser.
func (p *Parser) ParseDeclarationList(data []byte) map[string]Value {
	input := parse.NewInput(bytes.NewReader(append(append([]byte{'a', '{'}, data...), '}')))
	parser := css.NewParser(input, false)
	for {
		gt, _, _ := parser.Next()
		if gt == css.BeginRulesetGrammar {
			return p.parseDeclarations(parser)
		}
		if gt == css.ErrorGrammar {
			return map[string]Value{}
		}
	}
}

func extractImportURL(tokens []css.Token) string {
	for _, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return unquote(string(t.Data))
		case css.URLToken:
			s := strings.TrimPrefix(string(t.Data), "url(")
			s = strings.TrimSuffix(s, ")")
			return unquote(strings.TrimSpace(s))
		}
	}
	return ""
}

func (p *Parser) parseSelectorGroup(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}
	var selectors []string
	for s := range strings.SplitSeq(sb.String(), ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

func (p *Parser) parseDeclarations(parser *css.Parser) map[string]Value {
	props := make(map[string]Value)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return props
		case css.DeclarationGrammar:
			propName := strings.ToLower(string(data))
			values := parser.Values()
			if len(values) > 0 {
				props[propName] = p.parsePropertyValue(values)
			}
		case css.CustomPropertyGrammar:
			continue
		}
	}
}

func (p *Parser) parsePropertyValue(tokens []css.Token) Value {
	if len(tokens) == 0 {
		return Value{}
	}

	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
	}
	raw := strings.TrimSpace(strings.Join(rawParts, ""))
	val := Value{Raw: raw}

	if len(tokens) == 1 || (len(tokens) == 2 && tokens[1].TokenType == css.WhitespaceToken) {
		t := tokens[0]
		switch t.TokenType {
		case css.DimensionToken:
			val.Number, val.Unit = parseDimension(string(t.Data))
		case css.PercentageToken:
			val.Number, _ = strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
			val.Unit = "%"
		case css.NumberToken:
			val.Number, _ = strconv.ParseFloat(string(t.Data), 64)
		case css.IdentToken:
			val.Keyword = strings.ToLower(string(t.Data))
		case css.StringToken:
			val.Keyword = unquote(string(t.Data))
		case css.HashToken:
			val.Keyword = string(t.Data)
		}
		return val
	}

	val.Keyword = raw
	return val
}

func parseDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}
	if numEnd == 0 {
		return 0, ""
	}
	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	return num, strings.ToLower(s[numEnd:])
}

// parseSelector parses one (possibly descendant, possibly compound)
// selector string into a Selector, recording any unsupported construct
// (sibling/child combinators, pseudo-classes) as a warning rather than
// failing the whole sheet (§7 category 5).
func (p *Parser) parseSelector(selStr string, sheet *Stylesheet) Selector {
	selStr = strings.TrimSpace(selStr)

	if strings.ContainsAny(selStr, "+~>") {
		sheet.Warnings = append(sheet.Warnings, "unsupported combinator selector: "+selStr)
		return Selector{Raw: selStr}
	}

	if strings.ContainsAny(selStr, " \t\n") {
		return p.parseDescendantSelector(selStr, sheet)
	}
	return p.parseSimpleSelector(selStr, sheet)
}

func (p *Parser) parseDescendantSelector(selStr string, sheet *Stylesheet) Selector {
	sel := Selector{Raw: selStr}
	parts := strings.Fields(selStr)
	if len(parts) < 2 {
		return sel
	}

	mainSel := p.parseSimpleSelector(parts[len(parts)-1], sheet)
	if !mainSel.IsSimple() {
		return sel
	}
	sel.Element = mainSel.Element
	sel.Class = mainSel.Class
	sel.Id = mainSel.Id
	sel.Attrs = mainSel.Attrs
	sel.Pseudo = mainSel.Pseudo

	ancestorParts := parts[:len(parts)-1]
	if len(ancestorParts) == 1 {
		ancestorSel := p.parseSimpleSelector(ancestorParts[0], sheet)
		if ancestorSel.IsSimple() {
			sel.Ancestor = &ancestorSel
		}
	} else {
		ancestorSel := p.parseDescendantSelector(strings.Join(ancestorParts, " "), sheet)
		if ancestorSel.IsSimple() || ancestorSel.IsDescendant() {
			sel.Ancestor = &ancestorSel
		}
	}
	return sel
}

// parseSimpleSelector parses one compound selector: an optional element
// name, and any number of .class/#id/[attr] components in any order.
func (p *Parser) parseSimpleSelector(selStr string, sheet *Stylesheet) Selector {
	selStr = strings.TrimSpace(selStr)
	sel := Selector{Raw: selStr}

	remaining := selStr
	if before, pseudo, found := strings.Cut(selStr, "::"); found {
		remaining = before
		switch strings.ToLower(pseudo) {
		case "before":
			sel.Pseudo = PseudoBefore
		case "after":
			sel.Pseudo = PseudoAfter
		default:
			sheet.Warnings = append(sheet.Warnings, "unsupported pseudo-element: "+selStr)
			return sel
		}
	} else if before, pseudo, found := strings.Cut(remaining, ":"); found {
		switch strings.ToLower(pseudo) {
		case "before":
			sel.Pseudo = PseudoBefore
			remaining = before
		case "after":
			sel.Pseudo = PseudoAfter
			remaining = before
		default:
			sheet.Warnings = append(sheet.Warnings, "unsupported pseudo-class: "+selStr)
			return sel
		}
	}
	if remaining == "" {
		return sel
	}

	for _, attr := range extractAttrSelectors(&remaining) {
		sel.Attrs = append(sel.Attrs, attr)
	}

	if idx := strings.IndexByte(remaining, '#'); idx >= 0 {
		sel.Id = remaining[idx+1:]
		remaining = remaining[:idx]
	}
	if element, class, found := strings.Cut(remaining, "."); found {
		if element != "" {
			sel.Element = element
		}
		sel.Class = class
	} else if remaining != "" {
		sel.Element = remaining
	}
	return sel
}

// extractAttrSelectors strips every "[name]" / "[name=value]" bracket group
// out of *remaining in place and returns them as AttrSelectors.
func extractAttrSelectors(remaining *string) []AttrSelector {
	var attrs []AttrSelector
	s := *remaining
	var out strings.Builder
	for {
		start := strings.IndexByte(s, '[')
		if start < 0 {
			out.WriteString(s)
			break
		}
		end := strings.IndexByte(s[start:], ']')
		if end < 0 {
			out.WriteString(s)
			break
		}
		end += start
		out.WriteString(s[:start])
		body := s[start+1 : end]
		if name, value, found := strings.Cut(body, "="); found {
			attrs = append(attrs, AttrSelector{Name: strings.TrimSpace(name), Value: unquote(strings.TrimSpace(value)), HasValue: true})
		} else if body != "" {
			attrs = append(attrs, AttrSelector{Name: strings.TrimSpace(body)})
		}
		s = s[end+1:]
	}
	*remaining = out.String()
	return attrs
}

func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

func (p *Parser) parseFontFace(parser *css.Parser) FontFace {
	ff := FontFace{}
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return ff
		case css.DeclarationGrammar:
			propName := string(data)
			values := parser.Values()
			if len(values) == 0 {
				continue
			}
			var parts []string
			for _, v := range values {
				if v.TokenType != css.WhitespaceToken {
					parts = append(parts, string(v.Data))
				}
			}
			valStr := strings.Join(parts, " ")
			switch propName {
			case "font-family":
				ff.Family = unquote(valStr)
			case "src":
				ff.Src = valStr
			case "font-style":
				ff.Style = valStr
			case "font-weight":
				ff.Weight = valStr
			}
		}
	}
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
