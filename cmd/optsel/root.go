package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"optsel/internal/config"
	"optsel/internal/console"
	"optsel/internal/logging"
	"optsel/internal/picker"
	"optsel/internal/source"
	"optsel/internal/tty"
)

type pickFlags struct {
	files   []string
	execs   []string
	dirs    []string
	prompt  string
	header  string
	index   bool
	confirm string
	color   string
}

func newRootCmd(a *app) *cobra.Command {
	var configPath string
	var flags pickFlags

	cmd := &cobra.Command{
		Use:   "optsel [flags] [option ...]",
		Short: "Pick one line from a list in the terminal",
		Long: `optsel shows a list of options below a prompt. Type to filter them
(case and accents are ignored), move with the arrow keys and press Enter.
The chosen option is printed on stdout.

Options come from the arguments, --file, --exec and --dir, or from stdin
when it is a pipe.`,
		Example: `  optsel red green blue
  git branch --format='%(refname:short)' | optsel -p "branch: "
  optsel -d ~/notes:*.md
  optsel -x "kubectl config get-contexts -o name" -c "Switch context?"`,
		Args:          cobra.ArbitraryArgs,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("prompt") {
				cfg.Prompt = flags.prompt
			}
			if cmd.Flags().Changed("color") {
				cfg.Color = flags.color
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closer, err := logging.New(cfg.LogFile, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer closer.Close()

			return runPicker(cmd.Context(), a, cfg, &flags, args, logger)
		},
	}

	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (default $OPTSEL_CONFIG or ~/.config/optsel/config.yaml)")

	f := cmd.Flags()
	f.StringArrayVarP(&flags.files, "file", "f", nil, "read options from a file, one per line")
	f.StringArrayVarP(&flags.execs, "exec", "x", nil, "run a command and use its output lines")
	f.StringArrayVarP(&flags.dirs, "dir", "d", nil, "use the files under PATH[:GLOB]")
	f.StringVarP(&flags.prompt, "prompt", "p", "", "prompt text")
	f.StringVarP(&flags.header, "header", "H", "", "line printed above the prompt")
	f.BoolVarP(&flags.index, "index", "i", false, "print the index of the chosen option instead of its text")
	f.StringVarP(&flags.confirm, "confirm", "c", "", "ask TEXT (y/N) after choosing; exit 1 when declined")
	f.StringVar(&flags.color, "color", config.ColorAuto, "color mode: auto, always or never")

	cmd.AddCommand(newConfigCmd(&configPath))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	return cfg, nil
}

func runPicker(ctx context.Context, a *app, cfg *config.Config, flags *pickFlags, args []string, logger *slog.Logger) error {
	options, err := collectOptions(ctx, a.stdin, flags, args, a.messages())
	if err != nil {
		return err
	}
	if len(options) == 0 {
		return picker.ErrNoOptions
	}
	logger.Info("options collected", "count", len(options), "config", cfg.Path())

	encoding, err := picker.ParseEncoding(cfg.InputEncoding)
	if err != nil {
		return err
	}

	f, err := a.openTTY()
	if err != nil {
		return err
	}
	defer f.Close()
	if !tty.IsTerminal(f) {
		return fmt.Errorf("%s is not a terminal", f.Name())
	}
	term := tty.New(f, f)

	if flags.header != "" {
		if _, err := fmt.Fprintln(f, flags.header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	p := picker.New(term,
		picker.WithPrompt(cfg.Prompt),
		picker.WithNoMatchMessage(cfg.NoMatchMessage),
		picker.WithStyles(picker.NewStyles(colorProfile(cfg.Color, f))),
		picker.WithEscapeTimeout(cfg.EscapeTimeout()),
		picker.WithEncoding(encoding),
		picker.WithTruncate(cfg.Truncate),
		picker.WithLogger(logger),
	)

	index, err := p.Show(options)
	if err != nil {
		return err
	}

	if flags.confirm != "" {
		ok, err := confirm(a, flags.confirm)
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("selection declined", "index", index)
			return errDeclined
		}
	}

	if flags.index {
		_, err = fmt.Fprintln(a.stdout, strconv.Itoa(index))
	} else {
		_, err = fmt.Fprintln(a.stdout, options[index])
	}
	return err
}

// collectOptions concatenates the arguments and every --file, --exec and
// --dir source in that order. Stdin is read only when none was given. A file
// or command that yields no lines is reported on con and skipped.
func collectOptions(ctx context.Context, stdin *os.File, flags *pickFlags, args []string, con *console.Console) ([]string, error) {
	options := append([]string(nil), args...)

	for _, path := range flags.files {
		lines, err := source.FromFile(path)
		if err != nil {
			return nil, err
		}
		if len(lines) == 0 {
			con.Warning(fmt.Sprintf("'%s' has no options", path))
		}
		options = append(options, lines...)
	}

	for _, command := range flags.execs {
		lines, err := source.FromCommand(ctx, command)
		if err != nil {
			return nil, err
		}
		if len(lines) == 0 {
			con.Warning(fmt.Sprintf("command '%s' printed no options", command))
		}
		options = append(options, lines...)
	}

	for _, spec := range flags.dirs {
		dir, err := source.ParseDir(spec)
		if err != nil {
			return nil, err
		}
		files, err := dir.List()
		if err != nil {
			return nil, err
		}
		options = append(options, files...)
	}

	if len(args) > 0 || len(flags.files) > 0 || len(flags.execs) > 0 || len(flags.dirs) > 0 {
		return options, nil
	}

	if stdin == nil {
		return nil, errNoSource
	}
	lines, err := source.FromStdin(stdin)
	if errors.Is(err, source.ErrNoInput) {
		return nil, errNoSource
	}
	return lines, err
}

var errNoSource = errors.New("no options given: pass them as arguments, use --file, --exec or --dir, or pipe them on stdin")

// confirm asks on its own handle to the terminal, separate from the one the
// picker session used.
func confirm(a *app, question string) (bool, error) {
	f, err := a.openTTY()
	if err != nil {
		return false, err
	}
	defer f.Close()

	return console.New(f, f, f).Confirm("%s", question)
}

func colorProfile(mode string, w io.Writer) termenv.Profile {
	switch mode {
	case config.ColorAlways:
		return termenv.ANSI
	case config.ColorNever:
		return termenv.Ascii
	}
	if termenv.EnvNoColor() {
		return termenv.Ascii
	}
	return termenv.NewOutput(w).ColorProfile()
}
