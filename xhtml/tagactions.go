package xhtml

import (
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"oebcore/saxdriver"
	"oebcore/textmodel"
)

// TagAction is one tag's registered behavior: the reading states it
// applies in, and what to do on open/close (§4.5 "tag-action registry").
type TagAction struct {
	EnabledIn func(state ReadState) bool
	DoAtStart func(r *Reader, attrs []saxdriver.Attr)
	DoAtEnd   func(r *Reader)
}

func inBody(s ReadState) bool { return s == StateBody }
func always(ReadState) bool   { return true }

var controlKinds = map[string]textmodel.Kind{
	"b":      textmodel.KindBold,
	"strong": textmodel.KindStrong,
	"i":      textmodel.KindItalic,
	"em":     textmodel.KindEmphasis,
	"sup":    textmodel.KindSuperscript,
	"sub":    textmodel.KindSubscript,
	"code":   textmodel.KindCode,
	"tt":     textmodel.KindCode,
	"cite":   textmodel.KindCitation,
	"strike": textmodel.KindStrikethrough,
	"s":      textmodel.KindStrikethrough,
	"del":    textmodel.KindStrikethrough,
	"u":      textmodel.KindUnderline,
	"ins":    textmodel.KindUnderline,
	"small":  textmodel.KindSmall,
}

var headingKinds = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var registry = map[string]*TagAction{}

func init() {
	registry["body"] = &TagAction{
		EnabledIn: always,
		DoAtStart: func(r *Reader, attrs []saxdriver.Attr) {
			r.bodyCount++
			r.state = StateBody
		},
		DoAtEnd: func(r *Reader) {
			r.state = StateNothing
		},
	}

	registry["style"] = &TagAction{
		EnabledIn: func(s ReadState) bool { return s == StateNothing },
		DoAtStart: func(r *Reader, attrs []saxdriver.Attr) {
			r.state = StateStyle
			r.styleBuf.Reset()
		},
		DoAtEnd: func(r *Reader) {
			sheet := r.css.Parse([]byte(r.styleBuf.String()), "inline <style>")
			r.docSheet.Merge(sheet)
			r.state = StateNothing
		},
	}

	registry["link"] = &TagAction{
		EnabledIn: func(s ReadState) bool { return s == StateNothing },
		DoAtStart: func(r *Reader, attrs []saxdriver.Attr) {
			var rel, href string
			for _, a := range attrs {
				switch a.Name {
				case "rel":
					rel = strings.ToLower(a.Value)
				case "href":
					href = a.Value
				}
			}
			if rel != "stylesheet" || href == "" {
				return
			}
			r.loadLinkedStylesheet(href)
		},
	}

	pOpen := func(kind textmodel.ParagraphKind) func(r *Reader, attrs []saxdriver.Attr) {
		return func(r *Reader, attrs []saxdriver.Attr) {
			if r.br.ParagraphOpen() {
				r.br.EndParagraph()
			}
			r.br.BeginParagraph(kind)
			r.pendingSpace = false
			r.paragraphHasText = false
		}
	}
	pClose := func(r *Reader) {
		if r.br.ParagraphOpen() {
			r.br.EndParagraph()
		}
	}
	for _, tag := range []string{"p", "div"} {
		registry[tag] = &TagAction{EnabledIn: inBody, DoAtStart: pOpen(textmodel.Regular), DoAtEnd: pClose}
	}
	for tag := range headingKinds {
		registry[tag] = &TagAction{EnabledIn: inBody, DoAtStart: pOpen(textmodel.Regular), DoAtEnd: pClose}
	}

	for tag, kind := range controlKinds {
		k := kind
		registry[tag] = &TagAction{
			EnabledIn: inBody,
			DoAtStart: func(r *Reader, attrs []saxdriver.Attr) { r.br.PushKind(k) },
			DoAtEnd:   func(r *Reader) { r.br.PopKind() },
		}
	}

	registry["a"] = &TagAction{
		EnabledIn: inBody,
		DoAtStart: func(r *Reader, attrs []saxdriver.Attr) {
			href := attrValue(attrs, "href")
			if href == "" {
				return
			}
			if strings.Contains(href, "://") {
				r.br.AddHyperlinkControl(textmodel.HyperlinkExternal, href)
			} else {
				r.br.AddHyperlinkControl(textmodel.HyperlinkInternal, r.NormalizedReference(href))
			}
			r.emittedAny = true
		},
	}

	imageAction := &TagAction{
		EnabledIn: inBody,
		DoAtStart: func(r *Reader, attrs []saxdriver.Attr) {
			src := attrValue(attrs, "src")
			if src == "" {
				src = attrValue(attrs, "xlink:href")
			}
			if src == "" {
				return
			}
			name := r.NormalizedReference(src)
			isCover := r.myMarkNextImageAsCover
			r.myMarkNextImageAsCover = false
			r.br.AddImageReference(name, 0, isCover)
			r.emittedAny = true
		},
	}
	registry["img"] = imageAction
	registry["image"] = imageAction
	registry["svg:image"] = imageAction

	registry["ol"] = &TagAction{
		EnabledIn: inBody,
		DoAtStart: func(r *Reader, attrs []saxdriver.Attr) {
			start := 1
			if v := attrValue(attrs, "start"); v != "" {
				if n, err := strconv.Atoi(v); err == nil {
					start = n
				}
			}
			r.listNums = append(r.listNums, start)
		},
		DoAtEnd: func(r *Reader) { r.popList() },
	}
	registry["ul"] = &TagAction{
		EnabledIn: inBody,
		DoAtStart: func(r *Reader, attrs []saxdriver.Attr) { r.listNums = append(r.listNums, 0) },
		DoAtEnd:   func(r *Reader) { r.popList() },
	}
	registry["li"] = &TagAction{
		EnabledIn: inBody,
		DoAtStart: func(r *Reader, attrs []saxdriver.Attr) {
			if r.br.ParagraphOpen() {
				r.br.EndParagraph()
			}
			r.br.BeginParagraph(textmodel.Regular)
			r.pendingSpace = false
			r.paragraphHasText = false
			if n := r.topListNumber(); n > 0 {
				r.br.AddText(strconv.Itoa(n) + ". ")
				r.bumpListNumber()
			} else if len(r.listNums) > 0 {
				r.br.AddText("• ")
			}
		},
		DoAtEnd: pClose,
	}

	registry["pre"] = &TagAction{
		EnabledIn: inBody,
		DoAtStart: pOpen(textmodel.Regular),
		DoAtEnd:   pClose,
	}

	registry["video"] = &TagAction{
		EnabledIn: inBody,
		DoAtStart: func(r *Reader, attrs []saxdriver.Attr) {
			r.state = StateVideo
			r.videoSources = nil
			if src := attrValue(attrs, "src"); src != "" {
				r.videoSources = append(r.videoSources, r.NormalizedReference(src))
			}
		},
		DoAtEnd: func(r *Reader) {
			if len(r.videoSources) > 0 {
				r.br.AddVideoEntry(r.videoSources)
				r.emittedAny = true
			}
			r.state = StateBody
		},
	}
	registry["source"] = &TagAction{
		EnabledIn: func(s ReadState) bool { return s == StateVideo },
		DoAtStart: func(r *Reader, attrs []saxdriver.Attr) {
			if src := attrValue(attrs, "src"); src != "" {
				r.videoSources = append(r.videoSources, r.NormalizedReference(src))
			}
		},
	}

	registry["br"] = &TagAction{
		EnabledIn: inBody,
		DoAtStart: func(r *Reader, attrs []saxdriver.Attr) {
			if r.br.ParagraphOpen() {
				r.br.RestartParagraph(false)
				r.pendingSpace = false
				r.paragraphHasText = false
			}
		},
	}
}

func (r *Reader) popList() {
	if len(r.listNums) > 0 {
		r.listNums = r.listNums[:len(r.listNums)-1]
	}
}

func (r *Reader) topListNumber() int {
	if len(r.listNums) == 0 {
		return 0
	}
	return r.listNums[len(r.listNums)-1]
}

func (r *Reader) bumpListNumber() {
	if len(r.listNums) == 0 {
		return
	}
	r.listNums[len(r.listNums)-1]++
}

func (r *Reader) loadLinkedStylesheet(href string) {
	p := r.NormalizedReference(href)
	if sheet, ok := r.sheetCache[p]; ok {
		r.docSheet.Merge(sheet)
		return
	}
	if !r.opener.Has(p) {
		r.log.Debug("linked stylesheet not found", zap.String("href", href))
		return
	}
	rc, err := r.opener.Open(p)
	if err != nil {
		return
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return
	}
	sheet := r.css.Parse(data, p)
	r.sheetCache[p] = sheet
	r.docSheet.Merge(sheet)
}

func attrValue(attrs []saxdriver.Attr, name string) string {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// lookupAction resolves a tag to its registered action, normalizing
// namespaced SVG image tags to the shared "svg:image" entry the way
// saxdriver's non-namespace mode reports them (§4.5 "svg:image inside an
// svg wrapper is treated the same as img").
func lookupAction(space, name string) (*TagAction, bool) {
	key := name
	if space != "" {
		key = space + ":" + name
	}
	a, ok := registry[key]
	if !ok {
		a, ok = registry[name]
	}
	return a, ok
}
