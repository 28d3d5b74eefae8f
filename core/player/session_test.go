package player

import (
	"errors"
	"testing"
)

// fakeTransport 记录收到的指令，供断言
type fakeTransport struct {
	loads   []string
	playErr error
	playing bool
	volume  float64
	seeked  float64
}

func (f *fakeTransport) Load(url string) error {
	f.loads = append(f.loads, url)
	return nil
}

func (f *fakeTransport) Play() error {
	if f.playErr != nil {
		return f.playErr
	}
	f.playing = true
	return nil
}

func (f *fakeTransport) Pause()              { f.playing = false }
func (f *fakeTransport) Seek(s float64)      { f.seeked = s }
func (f *fakeTransport) SetVolume(v float64) { f.volume = v }

func TestSessionPlayFailureIsNotFatal(t *testing.T) {
	ft := &fakeTransport{playErr: errors.New("autoplay blocked")}
	s := NewSession(ft)

	s.LoadAndPlay("http://example.com/a.mp3")
	if s.IsPlaying() {
		t.Fatal("rejected play must leave the session paused")
	}
	if len(ft.loads) != 1 {
		t.Fatalf("source should still be loaded, loads=%v", ft.loads)
	}

	// 输出端恢复后可以直接再播
	ft.playErr = nil
	s.Play()
	if !s.IsPlaying() {
		t.Fatal("play should succeed once the transport recovers")
	}
}

func TestSessionVolumeZeroIsNotMuted(t *testing.T) {
	s := NewSession(&fakeTransport{})
	s.SetVolume(0)

	if s.Muted() {
		t.Fatal("volume zero displays as silent but must not set the mute flag")
	}
	if s.Volume() != 0 {
		t.Fatalf("stored volume should be 0, got %f", s.Volume())
	}
}

func TestSessionMutePreservesStoredVolume(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft)
	s.SetVolume(0.8)

	s.ToggleMute()
	if !s.Muted() || ft.volume != 0 {
		t.Fatalf("mute should force output to 0, muted=%v output=%f", s.Muted(), ft.volume)
	}
	if s.Volume() != 0.8 {
		t.Fatalf("stored volume must survive mute, got %f", s.Volume())
	}

	s.ToggleMute()
	if s.Muted() || ft.volume != 0.8 {
		t.Fatalf("unmute should restore the stored volume, muted=%v output=%f", s.Muted(), ft.volume)
	}
}

func TestSessionUnmuteWithZeroVolumeRestoresDefault(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft)
	s.SetVolume(0)
	s.ToggleMute()

	s.ToggleMute()
	if s.Volume() != DefaultVolume || ft.volume != DefaultVolume {
		t.Fatalf("unmuting with zero stored volume should restore %f, got %f", DefaultVolume, s.Volume())
	}
}

func TestSessionSeekClampsToDuration(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft)
	s.ReportDuration(100)

	s.Seek(150)
	if s.CurrentTime() != 100 || ft.seeked != 100 {
		t.Fatalf("seek past the end should clamp to duration, got %f", s.CurrentTime())
	}
	s.Seek(-5)
	if s.CurrentTime() != 0 {
		t.Fatalf("negative seek should clamp to 0, got %f", s.CurrentTime())
	}
}

func TestSessionEndedCallback(t *testing.T) {
	s := NewSession(&fakeTransport{})
	ended := false
	s.SetOnEnded(func() { ended = true })

	s.ReportEnded()
	if !ended {
		t.Fatal("natural end must invoke the callback")
	}
}
