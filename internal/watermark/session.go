package watermark

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
)

// Session marks a single source file. The builder is chosen once, when
// the session is created; options and the marker can change between
// calls to Command and Write.
//
// A Session is not safe for concurrent use. Independent sessions share
// nothing and may run in parallel.
type Session struct {
	source  string
	builder Builder
	options Options
	marker  Marker

	files  FileChecker
	runner Runner
	logger *slog.Logger
}

type sessionConfig struct {
	files   FileChecker
	sniffer Sniffer
	runner  Runner
	tool    ToolChecker
	logger  *slog.Logger
}

// SessionOption replaces one of the collaborators a Session talks to.
type SessionOption func(*sessionConfig)

func WithFileChecker(f FileChecker) SessionOption {
	return func(c *sessionConfig) { c.files = f }
}

func WithSniffer(s Sniffer) SessionOption {
	return func(c *sessionConfig) { c.sniffer = s }
}

func WithRunner(r Runner) SessionOption {
	return func(c *sessionConfig) { c.runner = r }
}

func WithToolChecker(t ToolChecker) SessionOption {
	return func(c *sessionConfig) { c.tool = t }
}

// WithLogger sets the session logger. A nil logger keeps slog.Default.
func WithLogger(l *slog.Logger) SessionOption {
	return func(c *sessionConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// SessionFactory opens a Session for source with a fixed set of
// collaborators.
type SessionFactory func(ctx context.Context, source string) (*Session, error)

// NewSession verifies the toolchain, checks that source exists and picks
// the builder for its content type.
func NewSession(ctx context.Context, source string, opts ...SessionOption) (*Session, error) {
	cfg := sessionConfig{
		files:   OSFiles{},
		sniffer: MimeSniffer{},
		runner:  ShellRunner{},
		tool:    MagickChecker{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.tool.Check(ctx); err != nil {
		return nil, err
	}
	if !cfg.files.Exists(source) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, source)
	}
	builder, err := SelectBuilder(source, cfg.sniffer)
	if err != nil {
		return nil, err
	}

	return &Session{
		source:  source,
		builder: builder,
		options: DefaultOptions(),
		files:   cfg.files,
		runner:  cfg.runner,
		logger:  cfg.logger,
	}, nil
}

func (s *Session) Source() string { return s.source }

func (s *Session) Family() Family { return s.builder.Family() }

// Options returns a copy of the current options.
func (s *Session) Options() Options { return s.options }

// Marker returns the pending marker, or nil if none was set.
func (s *Session) Marker() Marker { return s.marker }

// Configure applies opts. Either all of them take effect or, on the
// first invalid one, none do.
func (s *Session) Configure(opts ...Option) error {
	return s.options.Apply(opts...)
}

// SetText makes text the pending marker, replacing any previous one.
func (s *Session) SetText(text string) {
	s.marker = TextMarker{Text: text}
}

// SetImage makes the image at path the pending marker, replacing any
// previous one. The file must exist.
func (s *Session) SetImage(path string) error {
	if !s.files.Exists(path) {
		return fmt.Errorf("%w: %s", ErrMarkerNotFound, path)
	}
	s.marker = ImageMarker{Path: path}
	return nil
}

// Command returns the command line that marks the source and writes it
// to output. An empty output overwrites the source in place.
func (s *Session) Command(output string) (string, error) {
	dest := s.destination(output)
	switch m := s.marker.(type) {
	case TextMarker:
		return s.builder.TextCommand(m.Text, dest, s.options), nil
	case ImageMarker:
		return s.builder.ImageCommand(m.Path, dest, s.options), nil
	}
	return "", ErrNoMarkerSet
}

// Write builds the command and runs it once. It reports false, without
// an error, when the tool exits non-zero or prints anything. A failed
// run may leave the destination partially written.
func (s *Session) Write(ctx context.Context, output string) (bool, error) {
	command, err := s.Command(output)
	if err != nil {
		return false, err
	}

	dir := s.source
	if output != "" {
		dir = filepath.Dir(output)
	}
	if !s.files.Writable(dir) {
		return false, fmt.Errorf("%w: %s", ErrDestinationNotWritable, dir)
	}

	s.logger.Debug("running watermark command", "source", s.source, "family", s.Family(),
		"style", s.options.Style.Name(s.marker.Kind()), "command", command)
	res, err := s.runner.Run(ctx, command)
	if err != nil {
		return false, err
	}
	if !res.OK() {
		s.logger.Warn("watermark command failed", "source", s.source, "exit_code", res.ExitCode, "output", res.Output)
		return false, nil
	}
	return true, nil
}

func (s *Session) destination(output string) string {
	if output == "" {
		return s.source
	}
	return output
}
