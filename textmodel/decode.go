package textmodel

import (
	"fmt"
	"unicode/utf16"

	"oebcore/alloc"
)

// recordReader is a cursor over a single flushed block's bytes, used to
// decode a paragraph's entries back out. No entry ever spans two block
// files (§3: an oversized record gets a whole block to itself, and a
// normal record that would overflow the current block triggers a flush
// first), so a paragraph whose entries span block boundaries is decoded
// one block at a time, refetched as the cursor crosses into the next one.
type recordReader struct {
	m     *Model
	block []byte
	index int
	pos   int
}

func newRecordReader(m *Model, addr alloc.Address) (*recordReader, error) {
	block, err := m.alloc.ReadBlock(addr.BlockIndex)
	if err != nil {
		return nil, err
	}
	return &recordReader{m: m, block: block, index: addr.BlockIndex, pos: addr.Offset}, nil
}

func (r *recordReader) ensure(n int) error {
	for r.pos+n > len(r.block) {
		if r.pos != len(r.block) {
			return fmt.Errorf("textmodel: record crosses block boundary at block %d offset %d", r.index, r.pos)
		}
		r.index++
		block, err := r.m.alloc.ReadBlock(r.index)
		if err != nil {
			return err
		}
		r.block = block
		r.pos = 0
	}
	return nil
}

func (r *recordReader) byte() (byte, error) {
	if err := r.ensure(1); err != nil {
		return 0, err
	}
	b := r.block[r.pos]
	r.pos++
	return b, nil
}

func (r *recordReader) uint16() (uint16, error) {
	if err := r.ensure(2); err != nil {
		return 0, err
	}
	v := uint16(r.block[r.pos]) | uint16(r.block[r.pos+1])<<8
	r.pos += 2
	return v, nil
}

func (r *recordReader) uint32() (uint32, error) {
	if err := r.ensure(4); err != nil {
		return 0, err
	}
	v := uint32(r.block[r.pos]) | uint32(r.block[r.pos+1])<<8 |
		uint32(r.block[r.pos+2])<<16 | uint32(r.block[r.pos+3])<<24
	r.pos += 4
	return v, nil
}

func (r *recordReader) utf16String() (string, error) {
	n, err := r.uint16()
	if err != nil {
		return "", err
	}
	units := make([]uint16, n)
	for i := range units {
		u, err := r.uint16()
		if err != nil {
			return "", err
		}
		units[i] = u
	}
	return string(utf16.Decode(units)), nil
}

func (r *recordReader) int16() (int16, error) {
	v, err := r.uint16()
	return int16(v), err
}

// DecodeParagraph decodes all entries of paragraph i in order.
func (m *Model) DecodeParagraph(i int) ([]Entry, error) {
	n := m.paragraphLen[i]
	if n == 0 {
		return nil, nil
	}
	r, err := newRecordReader(m, m.startAddr[i])
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, n)
	for k := 0; k < n; k++ {
		e, err := r.decodeOne()
		if err != nil {
			return nil, fmt.Errorf("textmodel: paragraph %d entry %d: %w", i, k, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *recordReader) decodeOne() (Entry, error) {
	tag, err := r.byte()
	if err != nil {
		return Entry{}, err
	}
	switch EntryKind(tag) {
	case EntryText:
		s, err := r.utf16String()
		return Entry{Kind: EntryText, Text: s}, err
	case EntryControlStart, EntryControlEnd:
		kb, err := r.byte()
		if err != nil {
			return Entry{}, err
		}
		return Entry{Kind: EntryKind(tag), ControlKind: Kind(kb)}, nil
	case EntryHyperlinkControl:
		kb, err := r.byte()
		if err != nil {
			return Entry{}, err
		}
		hb, err := r.byte()
		if err != nil {
			return Entry{}, err
		}
		label, err := r.utf16String()
		if err != nil {
			return Entry{}, err
		}
		return Entry{Kind: EntryHyperlinkControl, HyperlinkKind: Kind(kb), HyperlinkType: HyperlinkType(hb), Label: label}, nil
	case EntryImage:
		name, err := r.utf16String()
		if err != nil {
			return Entry{}, err
		}
		vshift, err := r.int16()
		if err != nil {
			return Entry{}, err
		}
		cover, err := r.byte()
		if err != nil {
			return Entry{}, err
		}
		return Entry{Kind: EntryImage, ImageName: name, ImageVShift: vshift, ImageCover: cover != 0}, nil
	case EntryStyle:
		depth, err := r.byte()
		if err != nil {
			return Entry{}, err
		}
		mask, err := r.uint32()
		if err != nil {
			return Entry{}, err
		}
		var vals [8]int16
		for i := range vals {
			vals[i], err = r.int16()
			if err != nil {
				return Entry{}, err
			}
		}
		ad, err := r.byte()
		if err != nil {
			return Entry{}, err
		}
		pb, err := r.byte()
		if err != nil {
			return Entry{}, err
		}
		flags, err := r.byte()
		if err != nil {
			return Entry{}, err
		}
		name, err := r.utf16String()
		if err != nil {
			return Entry{}, err
		}
		style := StyleEntry{
			Mask:             StyleFeature(mask),
			LeftMargin:       vals[0],
			RightMargin:      vals[1],
			TopMargin:        vals[2],
			BottomMargin:     vals[3],
			FirstLineIndent:  vals[4],
			FontSize:         vals[5],
			VerticalAlign:    vals[6],
			LineSpacePercent: vals[7],
			Alignment:        Alignment(ad >> 4),
			Display:          Display(ad & 0x0F),
			PageBreakBefore:  PageBreak(pb >> 4),
			PageBreakAfter:   PageBreak(pb & 0x0F),
			Bold:             flags&1 != 0,
			Italic:           flags&2 != 0,
			FontFamily:       name,
		}
		return Entry{Kind: EntryStyle, Style: style, StyleDepth: depth}, nil
	case EntryStyleClose:
		return Entry{Kind: EntryStyleClose}, nil
	case EntryFixedHSpace:
		n, err := r.byte()
		return Entry{Kind: EntryFixedHSpace, HSpaceCount: n}, err
	case EntryBidiReset:
		return Entry{Kind: EntryBidiReset}, nil
	case EntryVideo:
		count, err := r.uint16()
		if err != nil {
			return Entry{}, err
		}
		sources := make([]string, count)
		for i := range sources {
			s, err := r.utf16String()
			if err != nil {
				return Entry{}, err
			}
			sources[i] = s
		}
		return Entry{Kind: EntryVideo, VideoSources: sources}, nil
	default:
		return Entry{}, fmt.Errorf("unknown entry tag %d", tag)
	}
}
