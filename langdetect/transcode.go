package langdetect

import (
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DeclaredEncoding returns the encoding name that charset.DetermineEncoding
// reports as certain: one given by a byte-order mark in buf or by the
// charset parameter of contentTypeHint. An encoding found only by its
// `<meta>` prescan is not certain and is not returned, and an
// `<?xml encoding="...">` declaration is not read. This is tried before the naive/statistical path (§4.10 only runs its
// own detection "when the format does not declare either"), since a
// format that states its own encoding should never need guessing.
func DeclaredEncoding(buf []byte, contentTypeHint string) (string, bool) {
	_, name, ok := charset.DetermineEncoding(buf, contentTypeHint)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// ToUTF8 transcodes buf from a BOM-detected UTF-16 encoding to UTF-8, for
// the rare XHTML/OPF/NCX file saved as UTF-16 rather than UTF-8. encoding
// must be one of the "utf-16le"/"utf-16be" strings Naive returns.
func ToUTF8(buf []byte, encoding string) ([]byte, error) {
	var e unicode.Encoding
	switch encoding {
	case "utf-16le":
		e = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case "utf-16be":
		e = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	default:
		return buf, nil
	}
	out, _, err := transform.Bytes(e.NewDecoder(), buf)
	if err != nil {
		return nil, err
	}
	return out, nil
}
