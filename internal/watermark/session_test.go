package watermark

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, source string, extra ...SessionOption) (*Session, *fakeRunner) {
	t.Helper()
	runner := &fakeRunner{}
	opts := append([]SessionOption{
		WithFileChecker(fakeFiles{}),
		WithSniffer(extSniffer{}),
		WithRunner(runner),
		WithToolChecker(&fakeTool{}),
		WithLogger(quietLogger()),
	}, extra...)
	s, err := NewSession(context.Background(), source, opts...)
	require.NoError(t, err)
	return s, runner
}

func TestNewSessionSelectsBuilder(t *testing.T) {
	for _, src := range []string{"path/to/image/file.jpeg", "path/to/image/file.jpg", "path/to/file.png"} {
		s, _ := newTestSession(t, src)
		assert.Equal(t, FamilyRaster, s.Family(), src)
		assert.Equal(t, src, s.Source())
	}
	s, _ := newTestSession(t, "path/to/pdf/file.pdf")
	assert.Equal(t, FamilyDocument, s.Family())
}

func TestNewSessionErrors(t *testing.T) {
	tool := &fakeTool{err: ErrToolNotAvailable}
	_, err := NewSession(context.Background(), "path/to/file.jpg",
		WithToolChecker(tool), WithFileChecker(fakeFiles{}), WithSniffer(extSniffer{}))
	assert.ErrorIs(t, err, ErrToolNotAvailable)
	assert.Equal(t, 1, tool.calls)

	_, err = NewSession(context.Background(), "path/to/file.jpg",
		WithToolChecker(&fakeTool{}),
		WithFileChecker(fakeFiles{missing: map[string]bool{"path/to/file.jpg": true}}),
		WithSniffer(extSniffer{}))
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.Contains(t, err.Error(), "path/to/file.jpg")

	_, err = NewSession(context.Background(), "path/to/test.html",
		WithToolChecker(&fakeTool{}), WithFileChecker(fakeFiles{}), WithSniffer(extSniffer{}))
	var unsupported *UnsupportedSourceError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "text/html", unsupported.ContentType)
}

func TestSessionCommandRequiresMarker(t *testing.T) {
	s, runner := newTestSession(t, "path/source.jpg")

	_, err := s.Command("")
	assert.ErrorIs(t, err, ErrNoMarkerSet)

	ok, err := s.Write(context.Background(), "path/output.jpg")
	assert.ErrorIs(t, err, ErrNoMarkerSet)
	assert.False(t, ok)
	assert.Empty(t, runner.commands)
}

func TestSessionTextCommand(t *testing.T) {
	s, _ := newTestSession(t, "path/source.jpg")
	s.SetText("ajaxray.com")

	cmd, err := s.Command("path/output.jpg")
	require.NoError(t, err)
	assert.Equal(t, rasterText, cmd)

	again, err := s.Command("path/output.jpg")
	require.NoError(t, err)
	assert.Equal(t, cmd, again)
}

func TestSessionDefaultsToInPlace(t *testing.T) {
	s, _ := newTestSession(t, "path/source.jpg")
	s.SetText("x")
	cmd, err := s.Command("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cmd, "convert 'path/source.jpg' "))
	assert.True(t, strings.HasSuffix(cmd, `"  'path/source.jpg'`))
}

func TestSessionImageCommand(t *testing.T) {
	s, _ := newTestSession(t, "path/source.jpg")
	require.NoError(t, s.Configure(WithPosition(TopRight), WithOffset(100, 150)))
	require.NoError(t, s.SetImage("path/logo.png"))

	cmd, err := s.Command("path/output.jpg")
	require.NoError(t, err)
	assert.Equal(t, `composite -gravity NorthEast -geometry +100+150 -dissolve 30%  'path/logo.png' 'path/source.jpg' 'path/output.jpg'`, cmd)
}

func TestSessionMarkerReplaced(t *testing.T) {
	s, _ := newTestSession(t, "path/source.jpg")
	require.NoError(t, s.SetImage("path/logo.png"))
	s.SetText("CONFIDENTIAL")
	assert.Equal(t, TextMarker{Text: "CONFIDENTIAL"}, s.Marker())

	require.NoError(t, s.SetImage("path/logo.png"))
	assert.Equal(t, ImageMarker{Path: "path/logo.png"}, s.Marker())
	assert.Equal(t, "image", s.Marker().Kind())
}

func TestSessionMarkerNotFound(t *testing.T) {
	s, _ := newTestSession(t, "path/to/file.jpg",
		WithFileChecker(fakeFiles{missing: map[string]bool{"non/existing/marker.png": true}}))
	s.SetText("keep me")

	err := s.SetImage("non/existing/marker.png")
	assert.ErrorIs(t, err, ErrMarkerNotFound)
	assert.Contains(t, err.Error(), "non/existing/marker.png")
	assert.Equal(t, TextMarker{Text: "keep me"}, s.Marker())
}

func TestSessionConfigureRejectsAndKeepsState(t *testing.T) {
	s, _ := newTestSession(t, "path/source.jpg")
	require.NoError(t, s.Configure(WithOpacity(.5)))

	err := s.Configure(WithOpacity(2))
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, .5, s.Options().Opacity)
}

func TestSessionWrite(t *testing.T) {
	s, runner := newTestSession(t, "path/to/file.png")
	s.SetText("CONFIDENTIAL")

	ok, err := s.Write(context.Background(), "output.jpg")
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, runner.commands, 1)
	assert.Contains(t, runner.commands[0], "convert")
	assert.Contains(t, runner.commands[0], "CONFIDENTIAL")
	assert.Contains(t, runner.commands[0], "path/to/file.png")
	assert.Contains(t, runner.commands[0], "output.jpg")
}

func TestSessionWriteFailureIsNotAnError(t *testing.T) {
	tests := []struct {
		name   string
		result Result
	}{
		{"exit code", Result{ExitCode: 1}},
		{"output", Result{Output: "convert: unable to open image"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, runner := newTestSession(t, "path/to/file.jpg")
			runner.result = tt.result
			require.NoError(t, s.SetImage("path/company-logo.png"))

			ok, err := s.Write(context.Background(), "output.jpg")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Len(t, runner.commands, 1)
		})
	}
}

func TestSessionWriteRunnerError(t *testing.T) {
	s, runner := newTestSession(t, "path/to/file.jpg")
	runner.err = errors.New("fork failed")
	s.SetText("x")

	ok, err := s.Write(context.Background(), "")
	assert.False(t, ok)
	assert.EqualError(t, err, "fork failed")
}

func TestSessionWriteDestinationNotWritable(t *testing.T) {
	files := fakeFiles{readOnlyDir: map[string]bool{"non/existing": true, "path/to/file.jpg": true}}
	s, runner := newTestSession(t, "path/to/file.jpg", WithFileChecker(files))
	s.SetText("text")

	_, err := s.Write(context.Background(), "non/existing/output.jpg")
	assert.ErrorIs(t, err, ErrDestinationNotWritable)
	assert.Contains(t, err.Error(), "non/existing")

	_, err = s.Write(context.Background(), "")
	assert.ErrorIs(t, err, ErrDestinationNotWritable, "in-place write checks the source itself")
	assert.Empty(t, runner.commands)
}
