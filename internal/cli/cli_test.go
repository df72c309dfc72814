package cli

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YannKr/overmark/internal/auth"
	"github.com/YannKr/overmark/internal/watermark"
)

type allFiles struct{}

func (allFiles) Exists(string) bool   { return true }
func (allFiles) Writable(string) bool { return true }

type extSniffer struct{}

func (extSniffer) ContentType(path string) (string, error) {
	if strings.HasSuffix(path, ".pdf") {
		return "application/pdf", nil
	}
	return "image/jpeg", nil
}

type okTool struct{}

func (okTool) Check(context.Context) error { return nil }

type fakeRunner struct {
	result   watermark.Result
	commands []string
}

func (r *fakeRunner) Run(_ context.Context, command string) (watermark.Result, error) {
	r.commands = append(r.commands, command)
	return r.result, nil
}

func run(t *testing.T, runner *fakeRunner, args ...string) (string, error) {
	t.Helper()
	open := func(ctx context.Context, source string) (*watermark.Session, error) {
		return watermark.NewSession(ctx, source,
			watermark.WithFileChecker(allFiles{}),
			watermark.WithSniffer(extSniffer{}),
			watermark.WithRunner(runner),
			watermark.WithToolChecker(okTool{}),
		)
	}
	cmd := NewRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTextDryRun(t *testing.T) {
	runner := &fakeRunner{}
	out, err := run(t, runner, "text", "path/source.jpg", "ajaxray.com", "-o", "path/output.jpg", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, `convert 'path/source.jpg' -pointsize 24 -font 'Arial' -draw " gravity Center fill \"rgba(255,255,255,0.3)\" text 0,0 'ajaxray.com' fill \"rgba(0,0,0,0.3)\" text 1,1 'ajaxray.com'"  'path/output.jpg'`+"\n", out)
	assert.Empty(t, runner.commands)
}

func TestTextFlags(t *testing.T) {
	runner := &fakeRunner{}
	out, err := run(t, runner, "text", "in.jpg", "hi",
		"--position", "bottom-right", "--offset", "-80,200", "--rotate", "-15",
		"--opacity", ".2", "--font", "Courier", "--font-size", "48", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "-pointsize 48 -font 'Courier'")
	assert.Contains(t, out, "rotate 15 gravity SouthEast")
	assert.Contains(t, out, "rgba(255,255,255,0.2)")
	assert.Contains(t, out, "text -80,200")
}

func TestTextTiled(t *testing.T) {
	out, err := run(t, &fakeRunner{}, "text", "in.jpg", "hi", "--tiled", "--tile-size", "200x150", "--dry-run")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "convert -size 200x150 xc:none"))
}

func TestImageWrite(t *testing.T) {
	runner := &fakeRunner{}
	out, err := run(t, runner, "image", "in.jpg", "logo.png", "-o", "out.jpg", "--style", "colorless")
	require.NoError(t, err)
	require.Len(t, runner.commands, 1)
	assert.Contains(t, runner.commands[0], "-watermark 30%")
	assert.Equal(t, "Watermarked in.jpg -> out.jpg\n", out)
}

func TestImageWriteFailure(t *testing.T) {
	runner := &fakeRunner{result: watermark.Result{Output: "composite: no such file", ExitCode: 1}}
	_, err := run(t, runner, "image", "in.pdf", "logo.png")
	assert.ErrorIs(t, err, ErrWriteFailed)
}

func TestMarkFlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"bad offset", []string{"--offset", "10"}, watermark.ErrConfiguration},
		{"bad tile size", []string{"--tile-size", "big"}, watermark.ErrInvalidTileSize},
		{"bad opacity", []string{"--opacity", "2"}, watermark.ErrInvalidOpacity},
		{"bad position", []string{"--position", "middle"}, watermark.ErrInvalidPosition},
		{"bad style", []string{"--style", "shiny"}, watermark.ErrInvalidStyle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"text", "in.jpg", "hi", "--dry-run"}, tt.args...)
			_, err := run(t, &fakeRunner{}, args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestArgsRequired(t *testing.T) {
	_, err := run(t, &fakeRunner{}, "text", "in.jpg")
	assert.Error(t, err)
}

func TestPositions(t *testing.T) {
	out, err := run(t, &fakeRunner{}, "positions")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, []string{"POSITION", "ANCHOR"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"bottom-right", "SouthEast"}, strings.Fields(lines[9]))
}

func TestInspectRaster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixel.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	require.NoError(t, f.Close())

	out, err := run(t, &fakeRunner{}, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "image/png")
	assert.Contains(t, out, "raster")
}

func TestInspectUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain words"), 0o644))

	_, err := run(t, &fakeRunner{}, "inspect", path)
	assert.ErrorIs(t, err, watermark.ErrUnsupportedSource)
}

func TestHashToken(t *testing.T) {
	out, err := run(t, &fakeRunner{}, "hash-token", "om_secret")
	require.NoError(t, err)

	var hash string
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, "API_TOKEN_HASH="); ok {
			hash = v
		}
	}
	require.NotEmpty(t, hash)
	assert.True(t, auth.CheckToken(hash, "om_secret"))
}
