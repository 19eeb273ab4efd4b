package picker

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optsel/internal/tty/ttytest"
)

func newTestArea(t *testing.T, options ...string) (*Area, *ttytest.Terminal) {
	t.Helper()
	term := ttytest.New()
	area, err := NewArea(term, options, PlainStyles())
	require.NoError(t, err)
	return area, term
}

func TestNewAreaRejectsBadInput(t *testing.T) {
	_, err := NewArea(nil, []string{"a"}, PlainStyles())
	assert.ErrorIs(t, err, ErrNilTerminal)

	_, err = NewArea(ttytest.New(), nil, PlainStyles())
	assert.ErrorIs(t, err, ErrNoOptions)

	_, err = NewArea(ttytest.New(), []string{}, PlainStyles())
	assert.ErrorIs(t, err, ErrNoOptions)
}

func TestNewAreaCopiesOptions(t *testing.T) {
	options := []string{"one", "two"}
	area, _ := newTestArea(t, options...)
	options[0] = "changed"

	assert.Equal(t, "one", area.SelectedOption())
}

func TestFilterSelectsFirstMatch(t *testing.T) {
	area, _ := newTestArea(t, "Apple", "Banana", "apple pie")

	area.SetFilter("app")

	assert.Equal(t, []int{0, 2}, area.FilteredIndexes())
	assert.Equal(t, 0, area.SelectedIndex())
}

func TestNavigationSkipsNonMatching(t *testing.T) {
	area, _ := newTestArea(t, "Apple", "Banana", "apple pie")
	area.SetFilter("app")

	area.DecreaseSelectedIndex()
	assert.Equal(t, 0, area.SelectedIndex(), "no match before the first one")

	area.IncreaseSelectedIndex()
	assert.Equal(t, 2, area.SelectedIndex(), "Banana is skipped")

	area.IncreaseSelectedIndex()
	assert.Equal(t, 2, area.SelectedIndex(), "no match after the last one")
	assert.Equal(t, "apple pie", area.SelectedOption())
}

func TestFilterChangeResetsSelection(t *testing.T) {
	area, _ := newTestArea(t, "Apple", "Banana", "apple pie", "Mango")
	area.IncreaseSelectedIndex()
	area.IncreaseSelectedIndex()
	require.Equal(t, 2, area.SelectedIndex())

	area.SetFilter("an")
	assert.Equal(t, 1, area.SelectedIndex())

	// Setting the same filter again is not a change.
	area.IncreaseSelectedIndex()
	require.Equal(t, 3, area.SelectedIndex())
	area.SetFilter("an")
	assert.Equal(t, 3, area.SelectedIndex())
}

func TestRemoveFromEmptyFilter(t *testing.T) {
	area, _ := newTestArea(t, "Apple", "Banana")
	area.IncreaseSelectedIndex()

	area.RemoveLastCharFromFilter()

	assert.Equal(t, "", area.Filter())
	assert.Equal(t, 1, area.SelectedIndex())
}

func TestAddAndRemoveCharacters(t *testing.T) {
	area, _ := newTestArea(t, "café", "cafe", "tea")

	for _, r := range "café" {
		area.AddToFilter(r)
	}
	assert.Equal(t, "café", area.Filter())

	area.RemoveLastCharFromFilter()
	assert.Equal(t, "caf", area.Filter(), "removes a whole multi-byte character")
	assert.Equal(t, []int{0, 1}, area.FilteredIndexes())
}

func TestEmptyFilterRoundTrip(t *testing.T) {
	area, _ := newTestArea(t, "xylophone", "apple", "box")
	area.IncreaseSelectedIndex()

	area.SetFilter("x")
	area.IncreaseSelectedIndex()
	assert.Equal(t, 2, area.SelectedIndex())

	area.SetFilter("")
	assert.Equal(t, []int{0, 1, 2}, area.FilteredIndexes())
	assert.Equal(t, 0, area.SelectedIndex())
}

func TestAccentAndCaseInsensitiveFiltering(t *testing.T) {
	for _, filter := range []string{"cafe", "CAFE", "café", "CAFÉ", "cafe\u0301"} {
		t.Run(filter, func(t *testing.T) {
			area, _ := newTestArea(t, "Tea House", "Café Solutions")
			area.SetFilter(filter)
			assert.Equal(t, []int{1}, area.FilteredIndexes())
			assert.Equal(t, 1, area.SelectedIndex())
		})
	}
}

func TestFilterMonotonicity(t *testing.T) {
	options := []string{"alpha", "Alphabet", "beta", "álgebra", "gamma ray", "ALPS"}
	area, _ := newTestArea(t, options...)

	for _, word := range []string{"alphabet", "gamma ray", "alg", "zzz"} {
		prev := len(options)
		prefixes := []string{""}
		for i := range word {
			prefixes = append(prefixes, word[:i+1])
		}

		for _, p := range prefixes {
			area.SetFilter(p)
			n := len(area.FilteredIndexes())
			assert.LessOrEqual(t, n, prev, "appending to %q must not grow the match set", p)
			prev = n
		}
		for i := len(prefixes) - 1; i > 0; i-- {
			area.RemoveLastCharFromFilter()
			n := len(area.FilteredIndexes())
			assert.GreaterOrEqual(t, n, prev, "removing from %q must not shrink the match set", prefixes[i])
			prev = n
		}
	}
}

func TestSelectionStaysOnMatch(t *testing.T) {
	options := []string{"red", "green", "blue", "grey", "beige", "ruby red"}
	area, _ := newTestArea(t, options...)

	steps := []func(){
		func() { area.SetFilter("e") },
		area.IncreaseSelectedIndex,
		area.IncreaseSelectedIndex,
		func() { area.SetFilter("re") },
		area.IncreaseSelectedIndex,
		area.IncreaseSelectedIndex,
		area.IncreaseSelectedIndex,
		area.DecreaseSelectedIndex,
		func() { area.SetFilter("gr") },
		area.DecreaseSelectedIndex,
		func() { area.SetFilter("") },
		area.IncreaseSelectedIndex,
		func() { area.SetFilter("red") },
		area.IncreaseSelectedIndex,
	}

	for i, step := range steps {
		step()
		if area.HasFilteredOptions() {
			assert.True(t, textMatches(area.SelectedOption(), area.Filter()),
				"step %d: %q does not match %q", i, area.SelectedOption(), area.Filter())
		}
	}
}

func TestDrawNoMatches(t *testing.T) {
	area, term := newTestArea(t, "alpha")
	area.SetFilter("z")

	require.False(t, area.HasFilteredOptions())
	require.NoError(t, area.Draw())

	assert.Equal(t, "<cr>"+DefaultNoMatchMessage+"<el>\r\n<cuu1>", term.Output())
}

func TestDrawPrefixesSelectedOption(t *testing.T) {
	area, term := newTestArea(t, "Apple", "Banana", "apple pie")
	area.SetFilter("app")
	area.IncreaseSelectedIndex()

	require.NoError(t, area.Draw())

	want := "<cr>" +
		"  Apple<el>\r\n" +
		"> apple pie<el>\r\n" +
		"<cuu1><cuu1>"
	assert.Equal(t, want, term.Output())
	assert.Equal(t, 0, term.Row())
}

func TestDrawHighlightsMatch(t *testing.T) {
	term := ttytest.New()
	styles := DefaultStyles()
	area, err := NewArea(term, []string{"Café Solutions"}, styles)
	require.NoError(t, err)

	area.SetFilter("cafe")
	require.NoError(t, area.Draw())

	assert.Contains(t, term.Output(), "> "+styles.Highlight("Café")+" Solutions<el>")
}

func TestDrawErasesStaleLines(t *testing.T) {
	area, term := newTestArea(t, "one", "two", "three", "four", "five")
	require.NoError(t, area.Draw())
	require.Equal(t, 0, term.Row())
	term.Reset()

	area.SetFilter("o") // one, two, four
	require.NoError(t, area.Draw())

	want := "<cr>" +
		"> one<el>\r\n" +
		"  two<el>\r\n" +
		"  four<el>\r\n" +
		"<el>\r\n<el>\r\n" +
		strings.Repeat("<cuu1>", 5)
	assert.Equal(t, want, term.Output())
	assert.Equal(t, 0, term.Row())
	assert.Equal(t, 5, term.MaxRow())
}

func TestDrawGrowsAgain(t *testing.T) {
	area, term := newTestArea(t, "one", "two", "three")
	area.SetFilter("three")
	require.NoError(t, area.Draw())
	term.Reset()

	area.SetFilter("")
	require.NoError(t, area.Draw())

	assert.Equal(t, 0, strings.Count(term.Output(), "<el>\r\n<el>"), "nothing to erase")
	assert.Equal(t, 3, strings.Count(term.Output(), "\r\n"))
	assert.Equal(t, 3, strings.Count(term.Output(), "<cuu1>"))
	assert.Equal(t, 0, term.Row())
}

func TestClearAllOptions(t *testing.T) {
	area, term := newTestArea(t, "one", "two", "three")
	require.NoError(t, area.Draw())
	term.Reset()

	require.NoError(t, area.ClearAllOptions())

	assert.Equal(t, strings.Repeat("<el>\r\n", 3)+strings.Repeat("<cuu1>", 3), term.Output())
	assert.Equal(t, 0, term.Row())

	term.Reset()
	require.NoError(t, area.ClearAllOptions())
	assert.Empty(t, term.Output(), "nothing left to clear")
}

func TestDrawTruncatesToWidth(t *testing.T) {
	area, term := newTestArea(t, "abcdefghijklmnopqrstuvwxyz", "short")
	area.SetWidth(12)
	area.SetFilter("q")
	area.SetFilter("")

	require.NoError(t, area.Draw())

	lines := strings.Split(strings.TrimPrefix(term.Output(), "<cr>"), "<el>\r\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "> abcdefg"))
	assert.True(t, strings.HasSuffix(lines[0], ellipsis), "ellipsis kept")
	assert.NotContains(t, lines[0], "z")
	assert.LessOrEqual(t, runewidth.StringWidth(lines[0]), 11, "last column stays free")
	assert.Equal(t, "  short", lines[1])
}

func TestDrawFitsOptionOneCellShortOfWidth(t *testing.T) {
	area, term := newTestArea(t, "abcdefghi", "abcdefghij")
	area.SetWidth(12)

	require.NoError(t, area.Draw())

	lines := strings.Split(strings.TrimPrefix(term.Output(), "<cr>"), "<el>\r\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "> abcdefghi", lines[0])
	assert.Equal(t, "  abcdefgh"+ellipsis, lines[1])
}

func TestDrawMakesControlCharactersVisible(t *testing.T) {
	area, term := newTestArea(t, "a\nb", "c\rd", "tab\there", "esc\x1b[31m", "del\x7f")

	require.NoError(t, area.Draw())

	assert.Equal(t, 0, term.Row())
	assert.Equal(t, 5, term.MaxRow())
	out := term.Output()
	assert.Contains(t, out, "> a\u240ab<el>")
	assert.Contains(t, out, "  c\u240dd<el>")
	assert.Contains(t, out, "  tab\u2409here<el>")
	assert.Contains(t, out, "  esc\u241b[31m<el>")
	assert.Contains(t, out, "  del\u2421<el>")
	assert.Equal(t, "a\nb", area.SelectedOption(), "the option itself is unchanged")
}

func TestFilterMatchesControlCharacters(t *testing.T) {
	term := ttytest.New()
	styles := DefaultStyles()
	area, err := NewArea(term, []string{"x\ty", "x y"}, styles)
	require.NoError(t, err)

	area.SetFilter("\t")
	require.Equal(t, []int{0}, area.FilteredIndexes())
	require.NoError(t, area.Draw())

	assert.Contains(t, term.Output(), "> x"+styles.Highlight("\u2409")+"y<el>")
}

func TestVisible(t *testing.T) {
	assert.Equal(t, "plain Café", visible("plain Café"))
	assert.Equal(t, "\u2400\u241f\u2421", visible("\x00\x1f\x7f"))
	assert.Equal(t, "a\ufffdb", visible("a\u0085b"))
}

func TestDrawFailureIsReturned(t *testing.T) {
	area, term := newTestArea(t, "one")
	term.WriteErr = assert.AnError

	assert.ErrorIs(t, area.Draw(), assert.AnError)
}
