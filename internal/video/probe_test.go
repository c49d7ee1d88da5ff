package video

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProbe(t *testing.T) {
	raw := `{
		"streams": [
			{"codec_type": "audio", "nb_frames": "900"},
			{"codec_type": "video", "width": 1920, "height": 1080,
			 "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001", "nb_frames": "450"}
		],
		"format": {"duration": "15.015"}
	}`

	info, err := ParseProbe(raw)
	require.NoError(t, err)
	require.Equal(t, 29, info.FPS)
	require.Equal(t, 450, info.TotalFrames)
	require.Equal(t, "1920x1080", info.Resolution())
	require.InDelta(t, 450.0/29.0, info.DurationSeconds(), 1e-9)
}

func TestParseProbe_EstimatesFrameCount(t *testing.T) {
	raw := `{
		"streams": [{"codec_type": "video", "width": 640, "height": 480, "r_frame_rate": "0/0", "avg_frame_rate": "25/1"}],
		"format": {"duration": "4.0"}
	}`

	info, err := ParseProbe(raw)
	require.NoError(t, err)
	require.Equal(t, 25, info.FPS)
	require.Equal(t, 100, info.TotalFrames)
}

func TestParseProbe_ZeroFPS(t *testing.T) {
	raw := `{"streams": [{"codec_type": "video", "width": 10, "height": 20, "r_frame_rate": "0/0"}], "format": {}}`

	info, err := ParseProbe(raw)
	require.NoError(t, err)
	require.Equal(t, 0, info.FPS)
	require.Equal(t, 0.0, info.DurationSeconds())
	require.Equal(t, "10x20", info.Resolution())
}

func TestParseProbe_Errors(t *testing.T) {
	_, err := ParseProbe("not json")
	require.Error(t, err)

	_, err = ParseProbe(`{"streams": [{"codec_type": "audio"}]}`)
	require.Error(t, err)
}
