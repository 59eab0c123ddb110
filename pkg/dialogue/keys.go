package dialogue

// Key is a physical key as reported by the input-polling layer.
type Key int

const (
	KeyNone Key = iota

	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9

	KeySpace
	KeyMinus
	KeyEquals
	KeyLeftBracket
	KeyRightBracket
	KeyBackslash
	KeySemicolon
	KeyQuote
	KeyComma
	KeyPeriod
	KeySlash
	KeyBackquote

	KeyBackspace
	KeyEnter
	KeyEscape
)

// Keyboard is polled once per frame.
type Keyboard interface {
	// JustPressed reports whether k went down since the previous frame.
	JustPressed(k Key) bool
	// ShiftHeld reports whether a shift modifier is currently held.
	ShiftHeld() bool
}

// Keys is a Keyboard snapshot for a single frame.
type Keys struct {
	Pressed map[Key]bool
	Shift   bool
}

// Press returns a snapshot with the given keys down.
func Press(keys ...Key) Keys {
	k := Keys{Pressed: make(map[Key]bool, len(keys))}
	for _, key := range keys {
		k.Pressed[key] = true
	}
	return k
}

// WithShift returns a copy of the snapshot with shift held.
func (k Keys) WithShift() Keys {
	k.Shift = true
	return k
}

func (k Keys) JustPressed(key Key) bool { return k.Pressed[key] }
func (k Keys) ShiftHeld() bool          { return k.Shift }

// printableKeys is the fixed order in which typed keys are consumed within
// one frame.
var printableKeys []Key

// baseChars maps printable keys to their unshifted character.
var baseChars = map[Key]rune{
	KeySpace:        ' ',
	KeyMinus:        '-',
	KeyEquals:       '=',
	KeyLeftBracket:  '[',
	KeyRightBracket: ']',
	KeyBackslash:    '\\',
	KeySemicolon:    ';',
	KeyQuote:        '\'',
	KeyComma:        ',',
	KeyPeriod:       '.',
	KeySlash:        '/',
	KeyBackquote:    '`',
}

// shiftedSymbols is the shifted row of a US keyboard. Letters are
// upper-cased separately.
var shiftedSymbols = map[rune]rune{
	'1':  '!',
	'2':  '@',
	'3':  '#',
	'4':  '$',
	'5':  '%',
	'6':  '^',
	'7':  '&',
	'8':  '*',
	'9':  '(',
	'0':  ')',
	'-':  '_',
	'=':  '+',
	'[':  '{',
	']':  '}',
	'\\': '|',
	';':  ':',
	'\'': '"',
	',':  '<',
	'.':  '>',
	'/':  '?',
	'`':  '~',
}

// runeKeys is the reverse of baseChars plus shiftedSymbols, used by
// front-ends that receive characters rather than key codes.
var runeKeys = make(map[rune]keyStroke)

type keyStroke struct {
	key   Key
	shift bool
}

func init() {
	for i := 0; i < 26; i++ {
		baseChars[KeyA+Key(i)] = rune('a' + i)
	}
	for i := 0; i < 10; i++ {
		baseChars[Key0+Key(i)] = rune('0' + i)
	}

	for k := KeyA; k <= KeyBackquote; k++ {
		printableKeys = append(printableKeys, k)
	}

	for k, base := range baseChars {
		runeKeys[base] = keyStroke{key: k}
		if shifted, ok := shiftedSymbols[base]; ok {
			runeKeys[shifted] = keyStroke{key: k, shift: true}
		} else if base >= 'a' && base <= 'z' {
			runeKeys[base-'a'+'A'] = keyStroke{key: k, shift: true}
		}
	}
}

// Char returns the character a printable key produces, applying shift.
func Char(k Key, shift bool) (rune, bool) {
	base, ok := baseChars[k]
	if !ok {
		return 0, false
	}
	if !shift {
		return base, true
	}
	if base >= 'a' && base <= 'z' {
		return base - 'a' + 'A', true
	}
	if shifted, ok := shiftedSymbols[base]; ok {
		return shifted, true
	}
	return base, true
}

// KeyForRune finds the key and shift state that type r.
func KeyForRune(r rune) (Key, bool, bool) {
	ks, ok := runeKeys[r]
	if !ok {
		return KeyNone, false, false
	}
	return ks.key, ks.shift, true
}
