// Package picker shows a filterable list of options in the terminal and
// returns the one the user chooses.
//
// The list is drawn in place below a prompt line. Typing filters the options
// (ignoring case and accents), the arrow keys move the selection and Enter
// confirms it. When the user confirms, the prompt is replaced by the chosen
// option and the list is erased.
package picker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"

	"optsel/internal/cursor"
	"optsel/internal/tty"
)

const (
	DefaultPrompt         = "(type to filter or use arrows ↑/↓): "
	DefaultNoMatchMessage = "No options match your filter"
	DefaultEscapeTimeout  = 100 * time.Millisecond
)

var (
	ErrNoOptions   = errors.New("options cannot be empty")
	ErrNilTerminal = errors.New("terminal cannot be nil")
)

// Picker runs picker sessions on a terminal. A Picker is not safe for
// concurrent use: one session owns the terminal at a time.
type Picker struct {
	terminal      tty.Terminal
	prompt        string
	noMatch       string
	styles        Styles
	logger        *slog.Logger
	escapeTimeout time.Duration
	encoding      Encoding
	truncate      bool
}

// Option configures a Picker.
type Option func(*Picker)

func WithPrompt(prompt string) Option {
	return func(p *Picker) { p.prompt = prompt }
}

func WithNoMatchMessage(msg string) Option {
	return func(p *Picker) { p.noMatch = msg }
}

func WithStyles(s Styles) Option {
	return func(p *Picker) { p.styles = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Picker) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithEscapeTimeout bounds the wait for the bytes following ESC. Zero waits
// forever.
func WithEscapeTimeout(d time.Duration) Option {
	return func(p *Picker) { p.escapeTimeout = d }
}

func WithEncoding(e Encoding) Option {
	return func(p *Picker) { p.encoding = e }
}

// WithTruncate cuts options wider than the terminal so each takes one row.
func WithTruncate(on bool) Option {
	return func(p *Picker) { p.truncate = on }
}

// New returns a Picker drawing on t.
func New(t tty.Terminal, opts ...Option) *Picker {
	p := &Picker{
		terminal:      t,
		prompt:        DefaultPrompt,
		noMatch:       DefaultNoMatchMessage,
		styles:        DefaultStyles(),
		logger:        slog.New(slog.DiscardHandler),
		escapeTimeout: DefaultEscapeTimeout,
		encoding:      UTF8,
		truncate:      true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ShowOptions lets the user pick one of options on the controlling terminal
// and returns its index.
func ShowOptions(options []string) (int, error) {
	if len(options) == 0 {
		return -1, ErrNoOptions
	}
	t, err := tty.Open()
	if err != nil {
		return -1, err
	}
	defer t.Close()

	return New(t).Show(options)
}

// Show runs one session. It returns the index of the chosen option. The
// terminal is put back in its previous mode whatever happens.
func (p *Picker) Show(options []string) (index int, err error) {
	if len(options) == 0 {
		return -1, ErrNoOptions
	}
	if p.terminal == nil {
		return -1, ErrNilTerminal
	}

	area, err := NewArea(p.terminal, options, p.styles)
	if err != nil {
		return -1, err
	}
	area.SetNoMatchMessage(p.noMatch)

	log := p.logger.With("session", uuid.NewString())
	log.Debug("picker session starting", "options", len(options), "color", p.styles.Colored())

	if err := p.terminal.EnterRaw(); err != nil {
		return -1, err
	}
	defer func() {
		if err != nil {
			// A failed draw can leave the cursor hidden.
			_ = cursor.Show(p.terminal)
		}
		if rerr := p.terminal.Restore(); rerr != nil && err == nil {
			index, err = -1, rerr
		}
		if err != nil {
			log.Error("picker session failed", "error", err)
		}
	}()

	if err := p.handleKeys(area, NewDecoder(p.encoding), log); err != nil {
		return -1, err
	}
	if err := p.finalDraw(area); err != nil {
		return -1, fmt.Errorf("failed to draw selection: %w", err)
	}

	log.Info("option selected",
		"index", area.SelectedIndex(),
		"filter", area.Filter(),
		"matches", len(area.FilteredIndexes()))
	return area.SelectedIndex(), nil
}

func (p *Picker) handleKeys(area *Area, dec *Decoder, log *slog.Logger) error {
	for {
		if err := p.draw(area); err != nil {
			return fmt.Errorf("failed to draw options: %w", err)
		}

		keys, err := p.readKeys(dec, log)
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}

		for _, k := range keys {
			log.Debug("key", "kind", k.Kind, "rune", string(k.Rune))
			switch k.Kind {
			case KeyConfirm:
				if area.HasFilteredOptions() {
					return nil
				}
			case KeyUp:
				area.DecreaseSelectedIndex()
			case KeyDown:
				area.IncreaseSelectedIndex()
			case KeyBackspace:
				area.RemoveLastCharFromFilter()
			case KeyChar:
				area.AddToFilter(k.Rune)
			}
		}
	}
}

// readKeys reads bytes until the decoder produces at least one key. While a
// sequence is pending the read is bounded by the escape timeout, so a lone
// ESC is dropped instead of blocking the session.
func (p *Picker) readKeys(dec *Decoder, log *slog.Logger) ([]Key, error) {
	for {
		var b byte
		var err error
		if dec.Pending() && p.escapeTimeout > 0 {
			b, err = p.terminal.ReadByteTimeout(p.escapeTimeout)
			if errors.Is(err, tty.ErrTimeout) {
				log.Debug("incomplete key sequence timed out")
				return dec.Timeout(), nil
			}
		} else {
			b, err = p.terminal.ReadByte()
		}
		if err != nil {
			return nil, err
		}
		if keys := dec.Feed(b); len(keys) > 0 {
			return keys, nil
		}
	}
}

// draw expects the cursor on the prompt line and leaves it there.
func (p *Picker) draw(area *Area) error {
	width := 0
	if p.truncate {
		width = p.terminal.Width()
	}
	area.SetWidth(width)

	if err := cursor.Hide(p.terminal); err != nil {
		return err
	}
	if err := cursor.GoDown(p.terminal); err != nil {
		return err
	}
	if err := area.Draw(); err != nil {
		return err
	}
	if err := cursor.MoveUp(p.terminal); err != nil {
		return err
	}
	if err := cursor.GoToFirstColumn(p.terminal); err != nil {
		return err
	}

	prompt, filter := fitPrompt(p.prompt, area.Filter(), width)
	if _, err := io.WriteString(p.terminal, prompt+p.styles.Highlight(visible(filter))); err != nil {
		return err
	}
	if err := cursor.ClearRestOfLine(p.terminal); err != nil {
		return err
	}
	return cursor.Show(p.terminal)
}

// finalDraw replaces the prompt with the chosen option and erases the list.
func (p *Picker) finalDraw(area *Area) error {
	if err := cursor.GoToFirstColumn(p.terminal); err != nil {
		return err
	}
	if _, err := io.WriteString(p.terminal, selectedPrefix+p.styles.Highlight(visible(area.SelectedOption()))); err != nil {
		return err
	}
	if err := cursor.ClearRestOfLine(p.terminal); err != nil {
		return err
	}
	if err := cursor.NewLine(p.terminal); err != nil {
		return err
	}
	return area.ClearAllOptions()
}

// fitPrompt keeps the prompt line on one row: a prompt wider than the
// terminal is cut, and a long filter shows only its end.
func fitPrompt(prompt, filter string, width int) (string, string) {
	if width <= 0 {
		return prompt, filter
	}
	avail := width - 1
	if runewidth.StringWidth(prompt) > avail {
		return runewidth.Truncate(prompt, avail, ellipsis), ""
	}
	room := avail - runewidth.StringWidth(prompt)
	if runewidth.StringWidth(filter) <= room {
		return prompt, filter
	}
	if room <= runewidth.StringWidth(ellipsis) {
		return prompt, ""
	}
	r := []rune(filter)
	for len(r) > 0 && runewidth.StringWidth(ellipsis+string(r)) > room {
		r = r[1:]
	}
	return prompt, ellipsis + string(r)
}
