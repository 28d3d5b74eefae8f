package ingest

import (
	"bytes"
	"fmt"
	"strings"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// DurationProber 探测音频时长
type DurationProber interface {
	ProbeDuration(data []byte, contentType string) (float64, error)
}

// mp3Prober 基于 go-mp3 解码器的时长探测
// 解码输出恒为 16bit 双声道，每采样 4 字节
type mp3Prober struct{}

// NewDurationProber 创建时长探测器
func NewDurationProber() DurationProber {
	return mp3Prober{}
}

func (mp3Prober) ProbeDuration(data []byte, contentType string) (float64, error) {
	if contentType != "" && !strings.Contains(contentType, "mpeg") && !strings.Contains(contentType, "mp3") {
		return 0, fmt.Errorf("unsupported audio format for duration probe: %s", contentType)
	}
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to decode mp3 stream: %w", err)
	}
	sampleRate := decoder.SampleRate()
	if sampleRate <= 0 {
		return 0, fmt.Errorf("invalid sample rate in mp3 stream")
	}
	return float64(decoder.Length()) / (4 * float64(sampleRate)), nil
}
