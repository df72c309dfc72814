package watermark

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// fakeFiles reports every path as existing and writable unless listed.
type fakeFiles struct {
	missing     map[string]bool
	readOnlyDir map[string]bool
}

func (f fakeFiles) Exists(path string) bool   { return !f.missing[path] }
func (f fakeFiles) Writable(path string) bool { return !f.readOnlyDir[path] }

// extSniffer guesses content types from the file name, like the
// PHP-era test double it replaces.
type extSniffer struct {
	override map[string]string
}

func (s extSniffer) ContentType(path string) (string, error) {
	if ct, ok := s.override[path]; ok {
		return ct, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".png":
		return "image/png", nil
	case ".gif":
		return "image/gif", nil
	case ".pdf":
		return "application/pdf", nil
	case ".missing":
		return "", errors.New("open: no such file")
	}
	return "text/html", nil
}

type fakeRunner struct {
	result   Result
	err      error
	commands []string
}

func (r *fakeRunner) Run(_ context.Context, command string) (Result, error) {
	r.commands = append(r.commands, command)
	return r.result, r.err
}

type fakeTool struct {
	err   error
	calls int
}

func (t *fakeTool) Check(context.Context) error {
	t.calls++
	return t.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
