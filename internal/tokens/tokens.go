// Package tokens estimates how many model tokens a text occupies
package tokens

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"
)

// Counter counts tokens. Implementations are deterministic and return 0 for
// the empty string.
type Counter interface {
	Count(text string) int
}

// Default is the encoding used when none is named
const Default = "cl100k"

// BPE counts tokens with a byte-pair encoding vocabulary embedded in the
// binary
type BPE struct {
	name  string
	codec tokenizer.Codec
}

// NewBPE loads the named encoding
func NewBPE(encoding tokenizer.Encoding) (*BPE, error) {
	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokens: load %s: %w", encoding, err)
	}
	return &BPE{name: string(encoding), codec: codec}, nil
}

// Count returns the number of tokens in text. Text the codec cannot encode
// falls back to the Approx estimate.
func (b *BPE) Count(text string) int {
	if text == "" {
		return 0
	}
	ids, _, err := b.codec.Encode(text)
	if err != nil {
		return Approx{}.Count(text)
	}
	return len(ids)
}

func (b *BPE) String() string {
	return b.name
}

// Approx estimates one token per four characters
type Approx struct{}

// Count returns ceil(runes/4)
func (Approx) Count(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

func (Approx) String() string {
	return "approx"
}

// Names lists the accepted New arguments
var Names = []string{"cl100k", "o200k", "approx"}

// New returns the counter for name ("cl100k", "o200k" or "approx", with or
// without the "_base" suffix). An empty name selects Default.
func New(name string) (Counter, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), "_base") {
	case "", "cl100k":
		return NewBPE(tokenizer.Cl100kBase)
	case "o200k":
		return NewBPE(tokenizer.O200kBase)
	case "approx":
		return Approx{}, nil
	default:
		return nil, fmt.Errorf("tokens: unknown tokenizer %q (want one of %s)", name, strings.Join(Names, ", "))
	}
}
