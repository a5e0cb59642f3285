// Package chunker splits document text into overlapping passages sized for
// retrieval.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/apperr"
)

// Defaults for passage extraction. Sizes are in runes.
const (
	DefaultSize    = 500
	DefaultOverlap = 100

	// lookahead is how far past the hard chunk boundary the break-point
	// search may extend.
	lookahead = 100

	// minEmitLen is the minimum trimmed length of an emitted passage.
	// Anything shorter carries too little signal to be worth scoring.
	minEmitLen = 20
)

// Options configures passage extraction.
type Options struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// Validate checks the options. Overlap must stay strictly below Size or the
// split loop would stop advancing.
func (o Options) Validate() error {
	if err := validation.ValidateStruct(&o,
		validation.Field(&o.Size, validation.Required, validation.Min(1)),
		validation.Field(&o.Overlap, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("%w: chunker: %v", apperr.ErrValidation, err)
	}
	if o.Overlap >= o.Size {
		return fmt.Errorf("%w: chunker: overlap (%d) must be less than size (%d)", apperr.ErrValidation, o.Overlap, o.Size)
	}
	return nil
}

// DefaultOptions returns the standard passage sizing.
func DefaultOptions() Options {
	return Options{Size: DefaultSize, Overlap: DefaultOverlap}
}

// Chunker splits text into passages according to validated Options.
type Chunker struct {
	opts Options
}

// New creates a Chunker, rejecting malformed options with ErrValidation.
func New(opts Options) (*Chunker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{opts: opts}, nil
}

// breakPoints are natural boundaries in priority order. offset is how many
// runes of the matched pattern belong to the ending chunk (the period stays,
// newlines do not).
var breakPoints = []struct {
	pat    string
	offset int
}{
	{"\n\n", 0},
	{".\n", 1},
	{". ", 1},
	{"\n", 0},
}

// Split produces the ordered passages of text. Passages whose trimmed
// length is 20 runes or less are dropped, so very short input yields nil.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	var out []string

	for start := 0; start < len(runes); {
		end := start + c.opts.Size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = c.findBreak(runes, start, end)
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if utf8.RuneCountInString(piece) > minEmitLen {
			out = append(out, piece)
		}

		if end >= len(runes) {
			break
		}
		next := end - c.opts.Overlap
		if next <= start {
			// A short break-point chunk combined with a large overlap
			// must not stall the scan.
			next = end
		}
		start = next
	}
	return out
}

// findBreak searches the window from start to hardEnd+lookahead for the
// highest-priority natural boundary. A boundary is accepted only past 50%
// of the chunk size; otherwise the hard end stands.
func (c *Chunker) findBreak(runes []rune, start, hardEnd int) int {
	limit := hardEnd + lookahead
	if limit > len(runes) {
		limit = len(runes)
	}
	window := runes[start:limit]
	half := c.opts.Size / 2

	for _, bp := range breakPoints {
		if idx := lastIndex(window, bp.pat); idx > half {
			return start + idx + bp.offset
		}
	}
	return hardEnd
}

// lastIndex returns the rune offset of the last occurrence of pat in rs,
// or -1. Patterns are ASCII so a direct rune comparison is enough.
func lastIndex(rs []rune, pat string) int {
	p := []rune(pat)
	for i := len(rs) - len(p); i >= 0; i-- {
		match := true
		for j := range p {
			if rs[i+j] != p[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
