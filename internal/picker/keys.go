package picker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	keyBackspace = 8
	keyEnter     = 10
	keyReturn    = 13
	keyEscape    = 27
	keyDelete    = 127
	arrowUp      = 'A'
	arrowDown    = 'B'
)

// KeyKind is what a keystroke means to the picker.
type KeyKind int

const (
	KeyNone KeyKind = iota
	KeyConfirm
	KeyUp
	KeyDown
	KeyBackspace
	KeyChar
)

func (k KeyKind) String() string {
	switch k {
	case KeyNone:
		return "none"
	case KeyConfirm:
		return "confirm"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyBackspace:
		return "backspace"
	case KeyChar:
		return "char"
	default:
		return fmt.Sprintf("key(%d)", int(k))
	}
}

// Key is a decoded keystroke. Rune is set for KeyChar.
type Key struct {
	Kind KeyKind
	Rune rune
}

// Encoding decides how bytes >= 128 become filter characters.
type Encoding int

const (
	// UTF8 joins multi-byte sequences into one character. Bytes that do not
	// form valid UTF-8 are taken one by one as Latin-1.
	UTF8 Encoding = iota
	// Latin1 takes every byte as one character.
	Latin1
)

func (e Encoding) String() string {
	if e == Latin1 {
		return "latin1"
	}
	return "utf8"
}

// ParseEncoding accepts "utf8" or "latin1" (case-insensitive, "" means utf8).
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf8", "utf-8":
		return UTF8, nil
	case "latin1", "latin-1", "iso-8859-1":
		return Latin1, nil
	default:
		return UTF8, fmt.Errorf("unknown input encoding %q", s)
	}
}

type decoderState int

const (
	stateIdle decoderState = iota
	stateEscape
	stateEscape2
)

// Decoder turns the raw byte stream into keys, one byte at a time.
//
// An arrow key arrives as ESC, one byte that is ignored, then 'A' (up) or 'B'
// (down); any other third byte decodes to KeyNone.
type Decoder struct {
	encoding Encoding
	state    decoderState
	utf      []byte
}

func NewDecoder(enc Encoding) *Decoder {
	return &Decoder{encoding: enc}
}

// Pending reports whether the decoder is in the middle of a sequence.
func (d *Decoder) Pending() bool {
	return d.state != stateIdle || len(d.utf) > 0
}

// Feed consumes one byte and returns the keys it completes, if any.
func (d *Decoder) Feed(b byte) []Key {
	switch d.state {
	case stateEscape:
		d.state = stateEscape2
		return nil
	case stateEscape2:
		d.state = stateIdle
		switch b {
		case arrowUp:
			return []Key{{Kind: KeyUp}}
		case arrowDown:
			return []Key{{Kind: KeyDown}}
		default:
			return []Key{{Kind: KeyNone}}
		}
	}

	if len(d.utf) > 0 {
		if b&0xC0 == 0x80 {
			d.utf = append(d.utf, b)
			if !utf8.FullRune(d.utf) {
				return nil
			}
			r, size := utf8.DecodeRune(d.utf)
			if r == utf8.RuneError && size <= 1 {
				return d.flushBytes()
			}
			d.utf = d.utf[:0]
			return []Key{{Kind: KeyChar, Rune: r}}
		}
		keys := d.flushBytes()
		return append(keys, d.idle(b)...)
	}

	return d.idle(b)
}

// Timeout is called when a pending sequence stops arriving. An unfinished
// escape sequence is dropped; unfinished UTF-8 is taken byte by byte.
func (d *Decoder) Timeout() []Key {
	keys := d.flushBytes()
	d.Reset()
	return keys
}

// Reset forgets any partial sequence.
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.utf = d.utf[:0]
}

func (d *Decoder) idle(b byte) []Key {
	switch {
	case b == keyEnter || b == keyReturn:
		return []Key{{Kind: KeyConfirm}}
	case b == keyEscape:
		d.state = stateEscape
		return nil
	case b == keyBackspace || b == keyDelete:
		return []Key{{Kind: KeyBackspace}}
	case b >= utf8.RuneSelf:
		if d.encoding == UTF8 && b >= 0xC2 && b <= 0xF4 {
			d.utf = append(d.utf[:0], b)
			return nil
		}
		return []Key{{Kind: KeyChar, Rune: rune(b)}}
	case unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b)) || isWhitespace(b):
		return []Key{{Kind: KeyChar, Rune: rune(b)}}
	default:
		return []Key{{Kind: KeyNone}}
	}
}

// isWhitespace accepts the ASCII spaces plus the four information
// separators (28 to 31).
func isWhitespace(b byte) bool {
	return unicode.IsSpace(rune(b)) || (b >= 0x1C && b <= 0x1F)
}

func (d *Decoder) flushBytes() []Key {
	if len(d.utf) == 0 {
		return nil
	}
	keys := make([]Key, len(d.utf))
	for i, b := range d.utf {
		keys[i] = Key{Kind: KeyChar, Rune: rune(b)}
	}
	d.utf = d.utf[:0]
	return keys
}
