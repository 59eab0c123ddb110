package dialogue

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChar(t *testing.T) {
	tests := []struct {
		key   Key
		shift bool
		want  rune
	}{
		{KeyA, false, 'a'},
		{KeyA, true, 'A'},
		{KeyZ, true, 'Z'},
		{Key1, false, '1'},
		{Key1, true, '!'},
		{Key2, true, '@'},
		{Key9, true, '('},
		{Key0, true, ')'},
		{KeyMinus, true, '_'},
		{KeyEquals, true, '+'},
		{KeySemicolon, true, ':'},
		{KeyQuote, true, '"'},
		{KeyComma, true, '<'},
		{KeyPeriod, true, '>'},
		{KeySlash, true, '?'},
		{KeyBackquote, true, '~'},
		{KeySpace, true, ' '},
	}

	for _, tt := range tests {
		got, ok := Char(tt.key, tt.shift)
		assert.True(t, ok)
		assert.Equal(t, string(tt.want), string(got), "key %d shift %v", tt.key, tt.shift)
	}

	for _, k := range []Key{KeyNone, KeyBackspace, KeyEnter, KeyEscape} {
		_, ok := Char(k, false)
		assert.False(t, ok)
	}
}

func TestKeyForRune_RoundTrip(t *testing.T) {
	for _, r := range "Hello, World! 1+1=2? ~`_{}|" {
		k, shift, ok := KeyForRune(r)
		if assert.True(t, ok, "rune %q", r) {
			got, _ := Char(k, shift)
			assert.Equal(t, string(r), string(got))
		}
	}

	_, _, ok := KeyForRune('é')
	assert.False(t, ok)
}

func TestInputCapture_BackspaceOnEmpty(t *testing.T) {
	var c InputCapture
	c.Backspace()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, "", c.Text())
}

func TestInputCapture_Cap(t *testing.T) {
	var c InputCapture
	for i := 0; i < MaxInputLength; i++ {
		assert.True(t, c.Type(KeyX, false))
	}
	assert.False(t, c.Type(KeyY, false), "31st character is dropped")
	assert.Equal(t, MaxInputLength, c.Len())
	assert.Equal(t, strings.Repeat("x", MaxInputLength), c.Text())
}

func TestInputCapture_Submit(t *testing.T) {
	var c InputCapture
	_, ok := c.Submit()
	assert.False(t, ok, "empty buffer submits nothing")

	c.Type(KeyH, true)
	c.Type(KeyI, false)
	text, ok := c.Submit()
	assert.True(t, ok)
	assert.Equal(t, "Hi", text)
	assert.Equal(t, 0, c.Len())
}

func TestInputCapture_Poll(t *testing.T) {
	var c InputCapture
	c.Type(KeyA, false)

	// Backspace is applied before typed keys in the same frame.
	_, ok := c.Poll(Press(KeyBackspace, KeyB))
	assert.False(t, ok)
	assert.Equal(t, "b", c.Text())

	_, ok = c.Poll(Press(Key1).WithShift())
	assert.False(t, ok)
	assert.Equal(t, "b!", c.Text())

	text, ok := c.Poll(Press(KeyC, KeyEnter))
	assert.True(t, ok)
	assert.Equal(t, "b!c", text)
	assert.Equal(t, "", c.Text())

	_, ok = c.Poll(Press(KeyEnter))
	assert.False(t, ok)
}
