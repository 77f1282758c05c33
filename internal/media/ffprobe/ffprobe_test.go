package ffprobe

import (
	"errors"
	"math"
	"testing"
)

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		input string
		want  float64
	}{
		{"30000/1001", 29.97002997002997},
		{"25/1", 25},
		{"24", 24},
		{"", DefaultFPS},
		{"0/0", DefaultFPS},
		{"60/0", DefaultFPS},
		{"garbage", DefaultFPS},
		{"-30/1", DefaultFPS},
	}
	for _, tc := range cases {
		got := ParseFrameRate(tc.input)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ParseFrameRate(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestSummarizeVideoWithAudio(t *testing.T) {
	result := probeResult{
		Streams: []probeStream{
			{CodecType: "video", Width: 1280, Height: 720, AvgFrameRate: "30000/1001", Duration: "4.2"},
			{CodecType: "audio"},
		},
		Format: probeFormat{Duration: "4.5"},
	}
	clip, err := summarize("clip.mp4", result)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if clip.Width != 1280 || clip.Height != 720 {
		t.Errorf("geometry = %dx%d", clip.Width, clip.Height)
	}
	if !clip.HasAudio {
		t.Error("audio stream not detected")
	}
	if clip.Duration != 4.2 {
		t.Errorf("stream duration should win over container, got %v", clip.Duration)
	}
	if math.Abs(clip.FPS-29.97002997002997) > 1e-9 {
		t.Errorf("fps = %v", clip.FPS)
	}
}

func TestSummarizeFallsBackToContainerDuration(t *testing.T) {
	result := probeResult{
		Streams: []probeStream{{CodecType: "video", Width: 640, Height: 480}},
		Format:  probeFormat{Duration: "7.25"},
	}
	clip, err := summarize("clip.mp4", result)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if clip.Duration != 7.25 {
		t.Errorf("duration = %v, want 7.25", clip.Duration)
	}
	if clip.FPS != DefaultFPS {
		t.Errorf("missing rate should default to %v, got %v", DefaultFPS, clip.FPS)
	}
}

func TestSummarizeAudioOnlyFails(t *testing.T) {
	result := probeResult{Streams: []probeStream{{CodecType: "audio"}}}
	_, err := summarize("song.mp3", result)
	if !errors.Is(err, ErrNoVideoStream) {
		t.Fatalf("expected ErrNoVideoStream, got %v", err)
	}
}
