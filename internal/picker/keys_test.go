package picker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(d *Decoder, input string) []Key {
	var keys []Key
	for i := 0; i < len(input); i++ {
		keys = append(keys, d.Feed(input[i])...)
	}
	return keys
}

func char(r rune) Key {
	return Key{Kind: KeyChar, Rune: r}
}

func TestDecoder(t *testing.T) {
	tests := []struct {
		name     string
		encoding Encoding
		input    string
		want     []Key
	}{
		{"line feed confirms", UTF8, "\n", []Key{{Kind: KeyConfirm}}},
		{"carriage return confirms", UTF8, "\r", []Key{{Kind: KeyConfirm}}},
		{"arrow up", UTF8, "\x1b[A", []Key{{Kind: KeyUp}}},
		{"arrow down", UTF8, "\x1b[B", []Key{{Kind: KeyDown}}},
		{"second byte is not checked", UTF8, "\x1bOB", []Key{{Kind: KeyDown}}},
		{"other escape sequence", UTF8, "\x1b[C", []Key{{Kind: KeyNone}}},
		{"escape swallows a confirm", UTF8, "\x1bx\r", []Key{{Kind: KeyNone}}},
		{"backspace", UTF8, "\b", []Key{{Kind: KeyBackspace}}},
		{"delete is backspace", UTF8, "\x7f", []Key{{Kind: KeyBackspace}}},
		{"letters and digits", UTF8, "a1Z", []Key{char('a'), char('1'), char('Z')}},
		{"whitespace", UTF8, " \t", []Key{char(' '), char('\t')}},
		{"information separators", UTF8, "\x1c\x1d\x1e\x1f", []Key{char(0x1c), char(0x1d), char(0x1e), char(0x1f)}},
		{"punctuation ignored", UTF8, "-", []Key{{Kind: KeyNone}}},
		{"control ignored", UTF8, "\x03", []Key{{Kind: KeyNone}}},
		{"utf8 two bytes", UTF8, "\u00e9", []Key{char('\u00e9')}},
		{"utf8 three bytes", UTF8, "€", []Key{char('€')}},
		{"utf8 four bytes", UTF8, "😀", []Key{char('😀')}},
		{"stray continuation byte", UTF8, "\x80", []Key{char(0x80)}},
		{"broken sequence", UTF8, "\xc3a", []Key{char(0xc3), char('a')}},
		{"overlong sequence", UTF8, "\xe0\x80\x80", []Key{char(0xe0), char(0x80), char(0x80)}},
		{"latin1 byte per character", Latin1, "\u00e9", []Key{char(0xc3), char(0xa9)}},
		{"latin1 e acute", Latin1, "\xe9", []Key{char('\u00e9')}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(tt.encoding)
			assert.Equal(t, tt.want, feedAll(d, tt.input))
			assert.False(t, d.Pending())
		})
	}
}

func TestDecoderPending(t *testing.T) {
	d := NewDecoder(UTF8)

	assert.Empty(t, d.Feed(27))
	assert.True(t, d.Pending())
	assert.Empty(t, d.Feed('['))
	assert.True(t, d.Pending())
	assert.Equal(t, []Key{{Kind: KeyUp}}, d.Feed('A'))
	assert.False(t, d.Pending())

	assert.Empty(t, d.Feed(0xe2))
	assert.True(t, d.Pending())
}

func TestDecoderTimeout(t *testing.T) {
	t.Run("bare escape is dropped", func(t *testing.T) {
		d := NewDecoder(UTF8)
		d.Feed(27)
		assert.Empty(t, d.Timeout())
		assert.False(t, d.Pending())
		assert.Equal(t, []Key{char('a')}, d.Feed('a'))
	})

	t.Run("partial utf8 becomes latin1", func(t *testing.T) {
		d := NewDecoder(UTF8)
		d.Feed(0xe2)
		d.Feed(0x82)
		assert.Equal(t, []Key{char(0xe2), char(0x82)}, d.Timeout())
		assert.False(t, d.Pending())
	})

	t.Run("decoder starts over afterwards", func(t *testing.T) {
		d := NewDecoder(UTF8)
		d.Feed(0xc3)
		d.Timeout()
		assert.Equal(t, []Key{char('\u00e9')}, feedAll(d, "\u00e9"))
	})
}

func TestDecoderReset(t *testing.T) {
	d := NewDecoder(UTF8)
	d.Feed(27)
	d.Reset()
	require.False(t, d.Pending())
	assert.Equal(t, []Key{{Kind: KeyConfirm}}, d.Feed('\r'))
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{"", UTF8, false},
		{"utf8", UTF8, false},
		{"UTF-8", UTF8, false},
		{"latin1", Latin1, false},
		{"ISO-8859-1", Latin1, false},
		{"ebcdic", UTF8, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEncoding(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
