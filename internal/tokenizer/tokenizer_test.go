package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"only separators", " \t,.;:!?", nil},
		{"lowercases", "Hello World", []string{"hello", "world"}},
		{"drops stop words", "The quick brown fox", []string{"quick", "brown", "fox"}},
		{"stop words case-insensitive", "THE Will OF", nil},
		{"drops one-letter tokens", "a b c dd", []string{"dd"}},
		{"dedups per call", "fox Fox FOX dog", []string{"fox", "dog"}},
		{"splits on punctuation", "open-file_name(path)/x\\y", []string{"open", "file", "name", "path"}},
		{"keeps digits", "page 10 of 20", []string{"page", "10", "20"}},
		{"unicode letters", "Žluťoučký kůň", []string{"žluťoučký", "kůň"}},
		{"single multibyte rune dropped", "é ab", []string{"ab"}},
		{"backslash escapes", "line\\nbreak", []string{"line", "nbreak"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	in := "Save the file, then close the file and save again."
	first := Tokenize(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Tokenize(in))
	}
}

func TestNew_CustomStopWords(t *testing.T) {
	tok := New([]string{"Fox", " ", ""})
	assert.Equal(t, []string{"the", "quick", "brown"}, tok.Tokenize("The quick brown fox"))
	assert.True(t, tok.IsStopWord("FOX"))
	assert.False(t, tok.IsStopWord("the"))

	none := New(nil)
	assert.Equal(t, []string{"an", "apple"}, none.Tokenize("an apple"))
}
