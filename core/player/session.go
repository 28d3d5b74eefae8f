package player

import (
	"harmonyhub/logger"
)

// DefaultVolume 取消静音时音量为零的兜底值
const DefaultVolume = 0.5

// Transport 抽象唯一的音频输出端
// 同一时刻全局只有一个底层输出，换歌即替换它的音源
type Transport interface {
	// Load 替换音源并重置进度
	Load(url string) error
	// Play 开始播放，可能因输出端策略被拒绝
	Play() error
	// Pause 暂停播放
	Pause()
	// Seek 跳转到指定秒
	Seek(seconds float64)
	// SetVolume 设置输出音量 [0,1]
	SetVolume(v float64)
}

// Session 维护单个输出端的播放会话状态
// 并发控制由上层 Player 持锁保证，Session 本身不加锁
type Session struct {
	transport Transport

	isPlaying   bool
	currentTime float64
	duration    float64
	volume      float64
	muted       bool

	// onEnded 曲目自然播完的回调，由 Player 注入
	onEnded func()
}

// NewSession 创建会话，初始音量 1.0
func NewSession(transport Transport) *Session {
	return &Session{transport: transport, volume: 1.0}
}

// SetOnEnded 注册自然播完回调
func (s *Session) SetOnEnded(fn func()) { s.onEnded = fn }

// IsPlaying 是否在播
func (s *Session) IsPlaying() bool { return s.isPlaying }

// CurrentTime 当前进度（秒）
func (s *Session) CurrentTime() float64 { return s.currentTime }

// Duration 当前曲目时长（秒）
func (s *Session) Duration() float64 { return s.duration }

// Volume 存储的音量，与静音标志独立
func (s *Session) Volume() float64 { return s.volume }

// Muted 是否静音。音量为零时界面显示为静音，但不等于置位静音标志
func (s *Session) Muted() bool { return s.muted }

// LoadAndPlay 替换音源并尝试播放
// 播放失败不是致命错误：记录日志并保持暂停态，选中曲目不变
func (s *Session) LoadAndPlay(url string) {
	s.currentTime = 0
	s.duration = 0
	if err := s.transport.Load(url); err != nil {
		logger.Warn("Failed to load track source",
			logger.String("url", url),
			logger.ErrorField(err))
		s.isPlaying = false
		return
	}
	s.applyVolume()
	s.Play()
}

// Play 尝试开始播放
func (s *Session) Play() {
	if err := s.transport.Play(); err != nil {
		logger.Warn("Playback was rejected by transport", logger.ErrorField(err))
		s.isPlaying = false
		return
	}
	s.isPlaying = true
}

// Pause 暂停播放
func (s *Session) Pause() {
	s.transport.Pause()
	s.isPlaying = false
}

// Toggle 播放/暂停切换
func (s *Session) Toggle() {
	if s.isPlaying {
		s.Pause()
	} else {
		s.Play()
	}
}

// Seek 跳转进度
func (s *Session) Seek(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	if s.duration > 0 && seconds > s.duration {
		seconds = s.duration
	}
	s.currentTime = seconds
	s.transport.Seek(seconds)
}

// SetVolume 设置音量并清除静音标志
// 设为 0 时界面按静音显示，但这与显式静音是两种状态
func (s *Session) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.volume = v
	s.muted = false
	s.transport.SetVolume(v)
}

// ToggleMute 切换静音标志
// 静音只是把输出压为 0，存储的音量不变；取消静音时若存储音量为 0，
// 恢复到默认可听音量，避免"取消静音仍无声"
func (s *Session) ToggleMute() {
	if s.muted {
		s.muted = false
		if s.volume == 0 {
			s.volume = DefaultVolume
		}
	} else {
		s.muted = true
	}
	s.applyVolume()
}

// Stop 停止播放并清除进度
func (s *Session) Stop() {
	s.transport.Pause()
	s.isPlaying = false
	s.currentTime = 0
	s.duration = 0
}

// ReportTime 输出端上报播放进度
func (s *Session) ReportTime(t float64) { s.currentTime = t }

// ReportDuration 输出端上报曲目时长
func (s *Session) ReportDuration(d float64) { s.duration = d }

// ReportEnded 输出端上报曲目自然播完
func (s *Session) ReportEnded() {
	s.currentTime = 0
	if s.onEnded != nil {
		s.onEnded()
	}
}

func (s *Session) applyVolume() {
	if s.muted {
		s.transport.SetVolume(0)
		return
	}
	s.transport.SetVolume(s.volume)
}
