package xhtml

import (
	"sort"
	"strings"

	"oebcore/css"
	"oebcore/textmodel"
)

// ResolvedStyle is the computed style for one open tag: the style entry
// to emit (if any feature was set) plus the display/page-break decisions
// the XHTML reader must act on immediately (§4.5 "Style application per
// tag").
type ResolvedStyle struct {
	Entry        textmodel.StyleEntry
	DisplayNone  bool
	DisplayBlock bool
}

// matchedRule pairs a matching rule with its specificity so they can be
// sorted without recomputing the specificity for every comparison.
type matchedRule struct {
	rule        css.Rule
	specificity css.Specificity
}

// ComputeStyle evaluates sheet's rules against frames (the ancestor
// stack, innermost last) plus an optional inline style="..." attribute's
// already-parsed declarations, and produces the merged style entry
// (§4.5 steps 1-3: match, specificity-order, then style= wins last).
func ComputeStyle(sheet *css.Stylesheet, frames []css.Frame, inline map[string]css.Value) ResolvedStyle {
	var matched []matchedRule
	if sheet != nil {
		for _, rule := range sheet.Rules() {
			if rule.Selector.Matches(frames) {
				matched = append(matched, matchedRule{rule: rule, specificity: rule.Selector.ComputeSpecificity()})
			}
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].specificity.Less(matched[j].specificity)
	})

	var entry textmodel.StyleEntry
	for _, m := range matched {
		applyDeclarations(&entry, m.rule.Properties)
	}
	applyDeclarations(&entry, inline)

	return ResolvedStyle{
		Entry:        entry,
		DisplayNone:  entry.Mask&textmodel.FeatureDisplay != 0 && entry.Display == textmodel.DisplayNone,
		DisplayBlock: entry.Mask&textmodel.FeatureDisplay != 0 && entry.Display == textmodel.DisplayBlock,
	}
}

func applyDeclarations(entry *textmodel.StyleEntry, props map[string]css.Value) {
	for name, v := range props {
		switch name {
		case "margin-left":
			entry.LeftMargin = lengthToUnits(v)
			entry.Mask |= textmodel.FeatureLeftMargin
		case "margin-right":
			entry.RightMargin = lengthToUnits(v)
			entry.Mask |= textmodel.FeatureRightMargin
		case "margin-top":
			entry.TopMargin = lengthToUnits(v)
			entry.Mask |= textmodel.FeatureTopMargin
		case "margin-bottom":
			entry.BottomMargin = lengthToUnits(v)
			entry.Mask |= textmodel.FeatureBottomMargin
		case "text-indent":
			entry.FirstLineIndent = lengthToUnits(v)
			entry.Mask |= textmodel.FeatureFirstLineIndent
		case "text-align":
			if a, ok := parseAlignment(v.Keyword); ok {
				entry.Alignment = a
				entry.Mask |= textmodel.FeatureAlignment
			}
		case "font-family":
			if fam := firstFontFamily(v.Raw); fam != "" {
				entry.FontFamily = fam
				entry.Mask |= textmodel.FeatureFontFamily
			}
		case "font-weight":
			if isBoldWeight(v) {
				entry.Bold = true
				entry.Mask |= textmodel.FeatureBold
			} else if v.Keyword == "normal" {
				entry.Bold = false
				entry.Mask |= textmodel.FeatureBold
			}
		case "font-style":
			switch v.Keyword {
			case "italic", "oblique":
				entry.Italic = true
				entry.Mask |= textmodel.FeatureItalic
			case "normal":
				entry.Italic = false
				entry.Mask |= textmodel.FeatureItalic
			}
		case "font-size":
			entry.FontSize = lengthToUnits(v)
			entry.Mask |= textmodel.FeatureFontSize
		case "display":
			if d, ok := parseDisplay(v.Keyword); ok {
				entry.Display = d
				entry.Mask |= textmodel.FeatureDisplay
			}
		case "page-break-before":
			if pb, ok := parsePageBreak(v.Keyword); ok {
				entry.PageBreakBefore = pb
				entry.Mask |= textmodel.FeaturePageBreakBefore
			}
		case "page-break-after":
			if pb, ok := parsePageBreak(v.Keyword); ok {
				entry.PageBreakAfter = pb
				entry.Mask |= textmodel.FeaturePageBreakAfter
			}
		case "vertical-align":
			entry.VerticalAlign = verticalAlignUnits(v)
			entry.Mask |= textmodel.FeatureVerticalAlign
		case "line-height":
			entry.LineSpacePercent = lineHeightPercent(v)
			entry.Mask |= textmodel.FeatureLineSpace
		}
	}
}

// lengthToUnits normalizes a CSS length to hundredths-of-a-point,
// treating 1em == 12pt and 1px == 0.75pt (a fixed assumption in the
// absence of a real layout engine providing the parent font size, which
// is out of this module's scope — §1 "the text-rendering layout engine"
// is an external collaborator).
func lengthToUnits(v css.Value) int16 {
	switch v.Unit {
	case "pt":
		return int16(v.Number * 100)
	case "px":
		return int16(v.Number * 0.75 * 100)
	case "em":
		return int16(v.Number * 12 * 100)
	case "%":
		return int16(v.Number)
	default:
		return int16(v.Number * 100)
	}
}

func verticalAlignUnits(v css.Value) int16 {
	switch v.Keyword {
	case "sub":
		return -30
	case "super":
		return 30
	case "top", "text-top":
		return 100
	case "bottom", "text-bottom":
		return -100
	default:
		return lengthToUnits(v)
	}
}

func lineHeightPercent(v css.Value) int16 {
	switch v.Unit {
	case "%":
		return int16(v.Number)
	case "":
		if v.IsNumeric() {
			return int16(v.Number * 100)
		}
		return 100
	default:
		return int16(v.Number * 100)
	}
}

func isBoldWeight(v css.Value) bool {
	if v.Keyword == "bold" || v.Keyword == "bolder" {
		return true
	}
	return v.IsNumeric() && v.Number >= 700
}

func parseAlignment(kw string) (textmodel.Alignment, bool) {
	switch kw {
	case "left":
		return textmodel.AlignLeft, true
	case "right":
		return textmodel.AlignRight, true
	case "center":
		return textmodel.AlignCenter, true
	case "justify":
		return textmodel.AlignJustify, true
	}
	return 0, false
}

func parseDisplay(kw string) (textmodel.Display, bool) {
	switch kw {
	case "inline":
		return textmodel.DisplayInline, true
	case "block":
		return textmodel.DisplayBlock, true
	case "list-item":
		return textmodel.DisplayListItem, true
	case "none":
		return textmodel.DisplayNone, true
	}
	return 0, false
}

func parsePageBreak(kw string) (textmodel.PageBreak, bool) {
	switch kw {
	case "always":
		return textmodel.PageBreakAlways, true
	case "avoid":
		return textmodel.PageBreakAvoid, true
	case "auto":
		return textmodel.PageBreakAuto, true
	}
	return 0, false
}

func firstFontFamily(raw string) string {
	first, _, _ := strings.Cut(raw, ",")
	first = strings.TrimSpace(first)
	first = strings.Trim(first, `"'`)
	return first
}
