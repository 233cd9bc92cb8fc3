package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var stockListRe = regexp.MustCompile(`^(\s*STOCK_LIST\s*=\s*)(.*?)(\s*)$`)

// EnvFile edits the STOCK_LIST entry of a plain-text env file in place,
// leaving every other line untouched.
type EnvFile struct {
	path string
}

func NewEnvFile(path string) *EnvFile {
	return &EnvFile{path: path}
}

// Name returns the base name of the env file.
func (e *EnvFile) Name() string {
	return filepath.Base(e.path)
}

// StockList returns the current STOCK_LIST value with surrounding quotes
// stripped. A missing file or missing entry yields an empty string.
func (e *EnvFile) StockList() (string, error) {
	text, err := e.read()
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(text, "\n") {
		m := stockListRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		raw := strings.TrimSpace(m[2])
		if len(raw) >= 2 {
			if (raw[0] == '"' && raw[len(raw)-1] == '"') || (raw[0] == '\'' && raw[len(raw)-1] == '\'') {
				raw = raw[1 : len(raw)-1]
			}
		}
		return raw, nil
	}
	return "", nil
}

// SetStockList normalizes the given codes and rewrites the STOCK_LIST line,
// appending one if the file has none. Returns the normalized value.
func (e *EnvFile) SetStockList(value string) (string, error) {
	text, err := e.read()
	if err != nil {
		return "", err
	}
	normalized := NormalizeStockList(value)

	trailingNewline := true
	if text != "" {
		trailingNewline = strings.HasSuffix(text, "\n")
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if text == "" {
		lines = nil
	}
	replaced := false
	for i, line := range lines {
		m := stockListRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lines[i] = m[1] + normalized + m[3]
		replaced = true
	}
	if !replaced {
		if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) != "" {
			lines = append(lines, "")
		}
		lines = append(lines, "STOCK_LIST="+normalized)
	}

	out := strings.Join(lines, "\n")
	if trailingNewline {
		out += "\n"
	}
	if err := os.WriteFile(e.path, []byte(out), 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", e.path)
	}
	return normalized, nil
}

// NormalizeStockList collapses comma- or newline-separated codes into a
// single comma-separated list with blanks removed.
func NormalizeStockList(value string) string {
	parts := strings.Split(strings.ReplaceAll(value, "\n", ","), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

func (e *EnvFile) read() (string, error) {
	raw, err := os.ReadFile(e.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "read %s", e.path)
	}
	return string(raw), nil
}
