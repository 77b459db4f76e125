package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprox(t *testing.T) {
	c := Approx{}

	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("a"))
	assert.Equal(t, 1, c.Count("abcd"))
	assert.Equal(t, 2, c.Count("abcde"))
	assert.Equal(t, 1, c.Count("héll"), "runes, not bytes")
}

func TestBPE(t *testing.T) {
	for _, name := range []string{"cl100k", "o200k_base"} {
		t.Run(name, func(t *testing.T) {
			c, err := New(name)
			require.NoError(t, err)

			assert.Equal(t, 0, c.Count(""))

			text := "func main() { fmt.Println(\"hello, world\") }"
			first := c.Count(text)
			assert.Greater(t, first, 0)
			assert.Equal(t, first, c.Count(text))
			assert.Less(t, first, len(text))
		})
	}
}

func TestNew(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "cl100k_base", c.(*BPE).String())

	c, err = New(" APPROX ")
	require.NoError(t, err)
	assert.IsType(t, Approx{}, c)

	_, err = New("gpt2")
	assert.ErrorContains(t, err, "unknown tokenizer")
}
