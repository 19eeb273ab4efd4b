// Package source collects the option lists shown by the picker.
package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/shlex"
)

// ErrNoInput is returned by FromStdin when stdin is a terminal.
var ErrNoInput = errors.New("no input piped to stdin")

const maxLineSize = 1024 * 1024

// FromReader returns the non-blank lines of r, without line terminators.
func FromReader(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	return lines, nil
}

// FromStdin reads options from f when it is a pipe or a regular file.
func FromStdin(f *os.File) ([]string, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot inspect stdin: %w", err)
	}
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return nil, ErrNoInput
	}
	return FromReader(f)
}

// FromFile reads options from the file at path, one per line.
func FromFile(path string) ([]string, error) {
	f, err := os.Open(expandHome(path))
	if err != nil {
		return nil, fmt.Errorf("cannot open '%s': %w", path, err)
	}
	defer f.Close()

	return FromReader(f)
}

// FromCommand runs command and returns the non-blank lines of its output.
// The command line is split with shell-like quoting; no shell is involved.
func FromCommand(ctx context.Context, command string) ([]string, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("cannot parse command '%s': %w", command, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("command '%s' failed: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("command '%s' failed: %w", args[0], err)
	}

	return FromReader(bytes.NewReader(out))
}

// Dir lists the regular files under Path whose base name matches Filter.
type Dir struct {
	Path   string // absolute
	Filter string // glob for the base name, e.g. "*.yaml"; empty matches all
}

// ParseDir parses "PATH" or "PATH:GLOB". A leading ~ expands to the home
// directory and relative paths are made absolute.
func ParseDir(spec string) (Dir, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Dir{}, fmt.Errorf("empty directory")
	}

	path := spec
	filter := ""

	// A colon at index 1 is a Windows drive letter.
	if lastColon := strings.LastIndex(spec, ":"); lastColon > 1 {
		path = spec[:lastColon]
		filter = spec[lastColon+1:]
	}

	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return Dir{}, fmt.Errorf("invalid filter '%s': %w", filter, err)
		}
	}

	path = expandHome(path)
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return Dir{Path: path, Filter: filter}, nil
}

// List returns the matching files as paths relative to d.Path, sorted.
// Symlinks are skipped, as are entries that cannot be read.
func (d Dir) List() ([]string, error) {
	info, err := os.Stat(d.Path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("directory '%s' does not exist", d.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access '%s': %w", d.Path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s' is not a directory", d.Path)
	}

	var files []string

	err = filepath.WalkDir(d.Path, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.Type()&os.ModeSymlink != 0 || entry.IsDir() {
			return nil
		}

		if d.Filter != "" {
			if matched, _ := filepath.Match(d.Filter, entry.Name()); !matched {
				return nil
			}
		}

		rel, err := filepath.Rel(d.Path, path)
		if err != nil {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading directory '%s': %w", d.Path, err)
	}

	if len(files) == 0 {
		if d.Filter != "" {
			return nil, fmt.Errorf("no files found in '%s' matching '%s'", d.Path, d.Filter)
		}
		return nil, fmt.Errorf("no files found in '%s'", d.Path)
	}

	sort.Strings(files)
	return files, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
