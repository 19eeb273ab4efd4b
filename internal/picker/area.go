package picker

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"optsel/internal/cursor"
	"optsel/internal/tty"
)

const (
	selectedPrefix   = "> "
	unselectedPrefix = "  "
	ellipsis         = "…"
)

// Area is the filterable option list shown below the prompt.
//
// Changing the filter or the selection does not redraw; call Draw. Draw and
// ClearAllOptions expect the cursor on the line of the first option and
// leave it there.
type Area struct {
	terminal tty.Terminal
	options  []string
	folded   []folded
	styles   Styles

	// Options as printed, with control characters made visible.
	shown       []string
	shownFolded []folded
	noMatch  string
	width    int

	selectedIndex int
	filter        string
	filterFolded  folded
	filterShown   folded

	// Lines written by the previous Draw, erased when the next one is shorter.
	linesPrintedLastTime int
}

// NewArea copies options and prepares them for matching.
func NewArea(t tty.Terminal, options []string, styles Styles) (*Area, error) {
	if t == nil {
		return nil, ErrNilTerminal
	}
	if len(options) == 0 {
		return nil, ErrNoOptions
	}

	a := &Area{
		terminal:    t,
		options:     make([]string, len(options)),
		folded:      make([]folded, len(options)),
		shown:       make([]string, len(options)),
		shownFolded: make([]folded, len(options)),
		styles:      styles,
		noMatch:     DefaultNoMatchMessage,
	}
	copy(a.options, options)
	for i, o := range a.options {
		a.folded[i] = fold(o)
		a.shown[i] = visible(o)
		a.shownFolded[i] = a.folded[i]
		if a.shown[i] != o {
			a.shownFolded[i] = fold(a.shown[i])
		}
	}
	return a, nil
}

// SetNoMatchMessage changes the line shown when nothing matches.
func (a *Area) SetNoMatchMessage(msg string) {
	a.noMatch = msg
}

// SetWidth sets the terminal width used to truncate long options so each
// one takes a single row. Zero disables truncation.
func (a *Area) SetWidth(width int) {
	a.width = width
}

func (a *Area) Filter() string {
	return a.filter
}

// SetFilter replaces the filter. When it changes, the selection moves to the
// first matching option (or 0 when nothing matches).
func (a *Area) SetFilter(filter string) {
	if filter == a.filter {
		return
	}
	a.filter = filter
	a.filterFolded = fold(filter)
	a.filterShown = fold(visible(filter))
	a.selectedIndex = a.firstFilteredIndex()
}

func (a *Area) AddToFilter(r rune) {
	a.SetFilter(a.filter + string(r))
}

func (a *Area) RemoveLastCharFromFilter() {
	if a.filter == "" {
		return
	}
	_, size := utf8.DecodeLastRuneInString(a.filter)
	a.SetFilter(a.filter[:len(a.filter)-size])
}

// IncreaseSelectedIndex selects the next matching option, if there is one.
func (a *Area) IncreaseSelectedIndex() {
	for i := a.selectedIndex + 1; i < len(a.options); i++ {
		if a.matches(i) {
			a.selectedIndex = i
			return
		}
	}
}

// DecreaseSelectedIndex selects the previous matching option, if there is one.
func (a *Area) DecreaseSelectedIndex() {
	for i := a.selectedIndex - 1; i >= 0; i-- {
		if a.matches(i) {
			a.selectedIndex = i
			return
		}
	}
}

func (a *Area) SelectedIndex() int {
	return a.selectedIndex
}

// SelectedOption returns the selected option's text. Only meaningful when
// HasFilteredOptions is true.
func (a *Area) SelectedOption() string {
	return a.options[a.selectedIndex]
}

func (a *Area) HasFilteredOptions() bool {
	for i := range a.options {
		if a.matches(i) {
			return true
		}
	}
	return false
}

// FilteredIndexes returns the indexes of the matching options in list order.
func (a *Area) FilteredIndexes() []int {
	var idx []int
	for i := range a.options {
		if a.matches(i) {
			idx = append(idx, i)
		}
	}
	return idx
}

func (a *Area) matches(i int) bool {
	return a.filter == "" || a.folded[i].contains(a.filterFolded)
}

func (a *Area) firstFilteredIndex() int {
	for i := range a.options {
		if a.matches(i) {
			return i
		}
	}
	return 0
}

// Draw prints the matching options, erases whatever is left of a longer
// previous render and moves the cursor back to the first option line.
func (a *Area) Draw() error {
	if err := cursor.GoToFirstColumn(a.terminal); err != nil {
		return err
	}

	var linesJustPrinted int
	var err error
	if a.HasFilteredOptions() {
		linesJustPrinted, err = a.printFilteredOptions()
	} else {
		linesJustPrinted, err = a.printNoOptions()
	}
	if err != nil {
		return err
	}

	if err := a.clearExcessLines(linesJustPrinted, a.linesPrintedLastTime); err != nil {
		return err
	}

	if err := cursor.MoveUpN(a.terminal, max(linesJustPrinted, a.linesPrintedLastTime)); err != nil {
		return err
	}

	a.linesPrintedLastTime = linesJustPrinted
	return nil
}

// ClearAllOptions erases every line printed by the previous Draw.
func (a *Area) ClearAllOptions() error {
	if err := a.clearExcessLines(0, a.linesPrintedLastTime); err != nil {
		return err
	}
	if err := cursor.MoveUpN(a.terminal, a.linesPrintedLastTime); err != nil {
		return err
	}
	a.linesPrintedLastTime = 0
	return nil
}

func (a *Area) printFilteredOptions() (int, error) {
	printed := 0
	for i := range a.options {
		if !a.matches(i) {
			continue
		}
		prefix := unselectedPrefix
		if i == a.selectedIndex {
			prefix = selectedPrefix
		}
		if err := a.printFullLine(prefix + a.display(i)); err != nil {
			return printed, err
		}
		printed++
	}
	return printed, nil
}

func (a *Area) printNoOptions() (int, error) {
	if err := a.printFullLine(a.styles.Warning(a.noMatch)); err != nil {
		return 0, err
	}
	return 1, nil
}

// clearExcessLines blanks the lines of the previous render that the current
// one did not overwrite.
func (a *Area) clearExcessLines(linesJustPrinted, linesPrintedLastTime int) error {
	for i := linesJustPrinted; i < linesPrintedLastTime; i++ {
		if err := cursor.ClearRestOfLine(a.terminal); err != nil {
			return err
		}
		if err := cursor.NewLine(a.terminal); err != nil {
			return err
		}
	}
	return nil
}

// display returns option i as it should appear on screen, with the filter
// match highlighted. Truncated rows stay one cell short of the width so the
// terminal never wraps them and the ellipsis is not erased.
func (a *Area) display(i int) string {
	shown := a.shown[i]
	room := a.width - runewidth.StringWidth(selectedPrefix) - 1
	if a.width > 0 && room > 0 && runewidth.StringWidth(shown) > room {
		return highlight(runewidth.Truncate(shown, room, ellipsis), a.filterShown, a.styles.Highlight)
	}
	return highlightFolded(shown, a.shownFolded[i], a.filterShown, a.styles.Highlight)
}

// visible replaces control characters so text always takes a single row.
// C0 controls and DEL become their Control Pictures symbol; other controls
// become U+FFFD.
func visible(s string) string {
	if strings.IndexFunc(s, unicode.IsControl) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r < 0x20:
			return 0x2400 + r
		case r == 0x7f:
			return 0x2421
		case unicode.IsControl(r):
			return utf8.RuneError
		}
		return r
	}, s)
}

// printFullLine prints message, clears whatever followed it on screen and
// moves to the next line.
func (a *Area) printFullLine(message string) error {
	if _, err := io.WriteString(a.terminal, message); err != nil {
		return err
	}
	if err := cursor.ClearRestOfLine(a.terminal); err != nil {
		return err
	}
	return cursor.NewLine(a.terminal)
}
