package picker

import "github.com/muesli/termenv"

// Styles renders the picker's two colours. With the Ascii profile text is
// returned unchanged.
type Styles struct {
	profile termenv.Profile
}

// NewStyles returns Styles for the given colour profile. Any profile that
// can show colour gets the same 16-colour sequences.
func NewStyles(profile termenv.Profile) Styles {
	if profile != termenv.Ascii {
		profile = termenv.ANSI
	}
	return Styles{profile: profile}
}

// DefaultStyles uses plain ANSI colours.
func DefaultStyles() Styles {
	return NewStyles(termenv.ANSI)
}

// PlainStyles disables colour.
func PlainStyles() Styles {
	return NewStyles(termenv.Ascii)
}

// Highlight is bold green, used for matched text, the filter and the final choice.
func (s Styles) Highlight(text string) string {
	return s.profile.String(text).Bold().Foreground(termenv.ANSIGreen).String()
}

// Warning is bold red, used for the "no options match" line.
func (s Styles) Warning(text string) string {
	return s.profile.String(text).Bold().Foreground(termenv.ANSIRed).String()
}

// Colored reports whether the styles emit escape sequences.
func (s Styles) Colored() bool {
	return s.profile != termenv.Ascii
}
