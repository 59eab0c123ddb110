package dialogue

// MaxInputLength caps the typed reply. Further keystrokes are dropped.
const MaxInputLength = 30

// InputCapture buffers the player's typed reply. It knows nothing about
// scripts; the session decides what a submission means.
type InputCapture struct {
	buf []rune
}

// Backspace removes the last character, if any.
func (c *InputCapture) Backspace() {
	if len(c.buf) > 0 {
		c.buf = c.buf[:len(c.buf)-1]
	}
}

// Type appends the character for k. It reports false when k is not
// printable or the buffer is full.
func (c *InputCapture) Type(k Key, shift bool) bool {
	ch, ok := Char(k, shift)
	if !ok || len(c.buf) >= MaxInputLength {
		return false
	}
	c.buf = append(c.buf, ch)
	return true
}

// Submit returns the buffered text and clears the buffer. An empty buffer
// submits nothing.
func (c *InputCapture) Submit() (string, bool) {
	if len(c.buf) == 0 {
		return "", false
	}
	text := string(c.buf)
	c.Reset()
	return text, true
}

// Poll consumes one frame of keyboard input: backspace first, then typed
// keys in table order, then enter.
func (c *InputCapture) Poll(kb Keyboard) (string, bool) {
	if kb.JustPressed(KeyBackspace) {
		c.Backspace()
	}

	shift := kb.ShiftHeld()
	for _, k := range printableKeys {
		if kb.JustPressed(k) {
			c.Type(k, shift)
		}
	}

	if kb.JustPressed(KeyEnter) {
		return c.Submit()
	}
	return "", false
}

// Text returns the current buffer.
func (c *InputCapture) Text() string {
	return string(c.buf)
}

// Len returns the number of buffered characters.
func (c *InputCapture) Len() int {
	return len(c.buf)
}

// Reset empties the buffer.
func (c *InputCapture) Reset() {
	c.buf = c.buf[:0]
}
