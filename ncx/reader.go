// Package ncx parses an EPUB NCX navigation sidecar into an ordered
// navigation map (§4.6).
package ncx

import (
	"net/url"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"oebcore/saxdriver"
)

// NavPoint is one entry in an NCX navigation map (§3 "NavPoint").
type NavPoint struct {
	Order       int
	Level       int
	LabelText   string
	ContentHRef string
}

// startOrder is the play-order value assigned to the first navPoint
// lacking an explicit playOrder attribute; subsequent implicit orders
// increment from here, keeping them below any explicit attribute value
// (§4.6 "starting at -65535 to preserve document order even when
// playOrder attribute is absent").
const startOrder = -65535

// state is the reader's four-state machine (§4.6 "NONE → MAP → POINT →
// LABEL → TEXT").
type state int

const (
	stateNone state = iota
	stateMap
	statePoint
	stateLabel
	stateText
)

// Reader drives the SAX driver across a single NCX document, accumulating
// an ordered navigation map.
type Reader struct {
	log *zap.Logger

	state      state
	nextOrder  int
	stack      []*NavPoint
	navMap     map[int]*NavPoint
	insertions []int // order of insertion into navMap, for iteration-order tests
}

// New creates an NCX reader.
func New(log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{
		log:       log.Named("ncx"),
		nextOrder: startOrder,
		navMap:    make(map[int]*NavPoint),
	}
}

// Parse drives data through the SAX driver and returns the populated
// reader; ParseError is returned unchanged from the driver (§7 category
// 2: malformed NCX is reported, not silently swallowed, leaving the
// pipeline to decide how to degrade).
func Parse(data []byte, log *zap.Logger) (*Reader, error) {
	r := New(log)
	if err := saxdriver.Drive(data, r, saxdriver.Options{}); err != nil {
		return r, err
	}
	return r, nil
}

// NavMap returns the navigation map keyed by play order.
func (r *Reader) NavMap() map[int]NavPoint {
	out := make(map[int]NavPoint, len(r.navMap))
	for k, v := range r.navMap {
		out[k] = *v
	}
	return out
}

// OrderedNavPoints returns every NavPoint sorted by Order ascending,
// matching §4.6's "keys unique" navigation map read in the order a TOC
// generator walks it.
func (r *Reader) OrderedNavPoints() []NavPoint {
	points := make([]NavPoint, 0, len(r.navMap))
	for _, p := range r.navMap {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Order < points[j].Order })
	return points
}

func (r *Reader) StartElement(_, name string, attrs []saxdriver.Attr) {
	switch name {
	case "navMap":
		r.state = stateMap
	case "navPoint":
		order := r.nextOrder
		r.nextOrder++
		if v, ok := attrValue(attrs, "playOrder"); ok {
			if n, err := strconv.Atoi(v); err == nil {
				order = n
			}
		}
		point := &NavPoint{Order: order, Level: len(r.stack)}
		r.stack = append(r.stack, point)
		r.state = statePoint
	case "navLabel":
		if r.state == statePoint {
			r.state = stateLabel
		}
	case "text":
		if r.state == stateLabel {
			r.state = stateText
		}
	case "content":
		if len(r.stack) > 0 {
			if src, ok := attrValue(attrs, "src"); ok {
				if decoded, err := url.QueryUnescape(src); err == nil {
					r.stack[len(r.stack)-1].ContentHRef = decoded
				} else {
					r.stack[len(r.stack)-1].ContentHRef = src
				}
			}
		}
	}
}

func (r *Reader) EndElement(_, name string) {
	switch name {
	case "navMap":
		r.state = stateNone
	case "navPoint":
		point := r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]
		if point.LabelText == "" {
			point.LabelText = "..."
		}
		r.navMap[point.Order] = point
		r.insertions = append(r.insertions, point.Order)
		if len(r.stack) > 0 {
			r.state = statePoint
		} else {
			r.state = stateMap
		}
	case "navLabel":
		if r.state == stateText || r.state == stateLabel {
			r.state = statePoint
		}
	case "text":
		if r.state == stateText {
			r.state = stateLabel
		}
	}
}

func (r *Reader) CharacterData(text string) {
	if r.state != stateText || len(r.stack) == 0 {
		return
	}
	r.stack[len(r.stack)-1].LabelText += text
}

func attrValue(attrs []saxdriver.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}
