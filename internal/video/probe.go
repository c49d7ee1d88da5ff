package video

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"helmet-detector-go/pkg/models"
)

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ParseProbe разбирает JSON вывод ffprobe.
// FPS усекается до целого; если контейнер не хранит число кадров,
// оно оценивается как длительность * fps.
func ParseProbe(raw string) (*models.VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}

		rate := parseRate(s.RFrameRate)
		if rate == 0 {
			rate = parseRate(s.AvgFrameRate)
		}
		info := &models.VideoInfo{
			FPS:    int(rate),
			Width:  s.Width,
			Height: s.Height,
		}

		if n, err := strconv.Atoi(s.NbFrames); err == nil && n > 0 {
			info.TotalFrames = n
		} else {
			duration := parseFloat(s.Duration)
			if duration == 0 {
				duration = parseFloat(out.Format.Duration)
			}
			info.TotalFrames = int(math.Round(duration * rate))
		}
		return info, nil
	}
	return nil, fmt.Errorf("no video stream found")
}

// parseRate разбирает частоту кадров вида "30000/1001"
func parseRate(rate string) float64 {
	num, den, ok := strings.Cut(rate, "/")
	if !ok {
		return parseFloat(rate)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
