// Package langdetect implements the naive BOM/UTF-8 check plus the
// statistical per-(language,encoding) matcher used when a format does
// not declare its own language or encoding (§4.10).
package langdetect

import "bytes"

// Info is a detected (language, encoding) pair.
type Info struct {
	Language string
	Encoding string
}

var boms = []struct {
	bom      []byte
	encoding string
}{
	{[]byte{0xEF, 0xBB, 0xBF}, "utf-8"},
	{[]byte{0xFF, 0xFE, 0x00, 0x00}, "utf-32le"},
	{[]byte{0x00, 0x00, 0xFE, 0xFF}, "utf-32be"},
	{[]byte{0xFF, 0xFE}, "utf-16le"},
	{[]byte{0xFE, 0xFF}, "utf-16be"},
}

// Naive implements §4.10 step 1: BOM check, then a strict UTF-8
// validity scan. Per the spec's Open Question #2 resolution, UTF-8 is
// only returned if the multi-byte sequence validator ends the buffer
// with zero pending continuation bytes — a stricter requirement than the
// original source's, which returned UTF-8 even on a buffer truncated
// mid-sequence.
func Naive(buf []byte) (string, bool) {
	for _, b := range boms {
		if bytes.HasPrefix(buf, b.bom) {
			return b.encoding, true
		}
	}
	if len(buf) == 0 {
		return "", false
	}
	allASCII := true
	pendingContinuations := 0
	for _, b := range buf {
		if pendingContinuations > 0 {
			if b&0xC0 != 0x80 {
				return "", false
			}
			pendingContinuations--
			allASCII = false
			continue
		}
		switch {
		case b&0x80 == 0:
			// ASCII byte, no continuation expected.
		case b&0xE0 == 0xC0:
			pendingContinuations = 1
			allASCII = false
		case b&0xF0 == 0xE0:
			pendingContinuations = 2
			allASCII = false
		case b&0xF8 == 0xF0:
			pendingContinuations = 3
			allASCII = false
		default:
			return "", false
		}
	}
	if pendingContinuations != 0 {
		// Buffer ends mid-sequence: §4.10's Open Question #2 — require a
		// clean end rather than accepting a truncated multi-byte run.
		return "", false
	}
	if allASCII {
		return "us-ascii", true
	}
	return "utf-8", true
}

// Matcher is one statistical profile: a declared (language, encoding)
// pair plus a scoring function over an input buffer's byte n-gram
// statistics (§4.10 step 2 "Criterion").
type Matcher struct {
	Info Info
	// NGramLength is the byte-sequence length this matcher's profile was
	// built from; statistics are cached per length across matchers.
	NGramLength int
	// Score returns this matcher's criterion for buf given its n-gram
	// frequency table; higher is a better match.
	Score func(buf []byte, ngrams map[string]int) float64
}

// Registry holds every registered matcher, in registration order — first
// registered wins a tie (§4.10 "Tie-break: first-registered wins under
// equal score").
type Registry struct {
	matchers []Matcher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// Register appends m to the registry.
func (r *Registry) Register(m Matcher) { r.matchers = append(r.matchers, m) }

// FindInfo implements §4.10's findInfo: naive detection first, then every
// matcher (optionally filtered to the naive-detected encoding) scored
// against the buffer's own n-gram statistics, keeping the strict-best
// scorer above threshold.
func (r *Registry) FindInfo(buf []byte, threshold float64) (Info, bool) {
	naiveEncoding, naiveOK := Naive(buf)

	cache := make(map[int]map[string]int)
	var best Matcher
	bestScore := threshold
	found := false

	for _, m := range r.matchers {
		if naiveOK && naiveEncoding != "" && !encodingsCompatible(naiveEncoding, m.Info.Encoding) {
			continue
		}
		ngrams, ok := cache[m.NGramLength]
		if !ok {
			ngrams = buildNGrams(buf, m.NGramLength)
			cache[m.NGramLength] = ngrams
		}
		score := m.Score(buf, ngrams)
		if score > bestScore {
			bestScore = score
			best = m
			found = true
		}
	}
	if !found {
		if naiveOK {
			return Info{Encoding: naiveEncoding}, true
		}
		return Info{}, false
	}
	return best.Info, true
}

func encodingsCompatible(naive, candidate string) bool {
	if naive == "us-ascii" {
		// ASCII content is valid under any superset encoding; don't
		// exclude matchers declared for a wider charset.
		return true
	}
	return naive == candidate
}

func buildNGrams(buf []byte, n int) map[string]int {
	counts := make(map[string]int)
	if n <= 0 || len(buf) < n {
		return counts
	}
	for i := 0; i+n <= len(buf); i++ {
		counts[string(buf[i:i+n])]++
	}
	return counts
}
