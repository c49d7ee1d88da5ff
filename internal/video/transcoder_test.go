package video

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestTranscoder_Args(t *testing.T) {
	tr := NewTranscoder("libx264", "yuv420p", newTestLogger())
	args := tr.Args("in.avi", "out.mp4")

	joined := strings.Join(args, " ")
	require.Contains(t, joined, "-i in.avi")
	require.Contains(t, joined, "-c:v libx264")
	require.Contains(t, joined, "-pix_fmt yuv420p")
	require.Contains(t, args, "out.mp4")
	require.Contains(t, args, "-y")
}

func TestTranscoder_FailureReturnsTranscodeError(t *testing.T) {
	tr := NewTranscoder("libx264", "yuv420p", newTestLogger())
	out := filepath.Join(t.TempDir(), "out", "result.mp4")

	err := tr.Transcode(context.Background(), filepath.Join(t.TempDir(), "missing.avi"), out)
	require.Error(t, err)

	var terr *TranscodeError
	require.True(t, errors.As(err, &terr))
	require.LessOrEqual(t, len([]rune(terr.Stderr)), DiagnosticTailLimit)
	require.Contains(t, terr.Error(), "missing.avi")
}

func TestDiagnosticTail(t *testing.T) {
	require.Equal(t, "short", DiagnosticTail("short", 500))

	long := strings.Repeat("a", 600) + "END"
	tail := DiagnosticTail(long, 500)
	require.Len(t, tail, 500)
	require.True(t, strings.HasSuffix(tail, "END"))

	// Многобайтовые символы не разрезаются
	cyr := strings.Repeat("ж", 501)
	require.Equal(t, 500, len([]rune(DiagnosticTail(cyr, 500))))
}
