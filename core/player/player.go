package player

import (
	"sync"

	"harmonyhub/logger"
	"harmonyhub/model"
)

// State 播放器的完整可观测状态快照
type State struct {
	ActivePlaylist PlaylistRef   `json:"activePlaylist"`
	SearchQuery    string        `json:"searchQuery"`
	CurrentIndex   int           `json:"currentIndex"` // 播放序列内下标，-1 表示无选中
	CurrentSong    *model.Song   `json:"currentSong,omitempty"`
	Queue          []*model.Song `json:"queue"`
	IsPlaying      bool          `json:"isPlaying"`
	CurrentTime    float64       `json:"currentTime"`
	Duration       float64       `json:"duration"`
	Volume         float64       `json:"volume"`
	Muted          bool          `json:"muted"`
	Shuffled       bool          `json:"shuffled"`
	RepeatMode     RepeatMode    `json:"repeatMode"`
}

// Player 单个用户的播放器门面
// 组合范围解析、顺序控制与输出会话，所有公开方法持锁，可并发调用
type Player struct {
	mu sync.Mutex

	userID    int64
	songs     []*model.Song
	playlists []*model.Playlist

	active PlaylistRef
	search string

	resolved      []*model.Song
	currentSongID string

	seq     *Sequencer
	session *Session

	// onChange 状态变化回调，由上层接入持久化与推送
	onChange func(State)
}

// NewPlayer 创建播放器，初始范围为虚拟曲库
func NewPlayer(userID int64, transport Transport) *Player {
	p := &Player{
		userID:   userID,
		active:   LibraryRef(),
		resolved: []*model.Song{},
		seq:      NewSequencer(),
		session:  NewSession(transport),
	}
	p.session.SetOnEnded(p.handleEnded)
	return p
}

// SetOnChange 注册状态变化回调
func (p *Player) SetOnChange(fn func(State)) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// UserID 播放器归属用户
func (p *Player) UserID() int64 { return p.userID }

// SetCollection 更新可见歌曲与歌单的读模型
// 成员变化后按身份重新定位当前曲目：正在播放的歌若仍在序列中，
// 它继续是当前曲目；若已不可见则停止播放
func (p *Player) SetCollection(songs []*model.Song, playlists []*model.Playlist) {
	p.mu.Lock()
	p.songs = songs
	p.playlists = playlists
	p.rebuild()
	p.mu.Unlock()
	p.notify()
}

// SetActivePlaylist 切换活动歌单
func (p *Player) SetActivePlaylist(ref PlaylistRef) {
	p.mu.Lock()
	p.active = ref
	p.rebuild()
	p.mu.Unlock()
	p.notify()
}

// SetSearchQuery 设置搜索词，非空时搜索结果取代歌单范围成为播放序列
func (p *Player) SetSearchQuery(query string) {
	p.mu.Lock()
	p.search = query
	p.rebuild()
	p.mu.Unlock()
	p.notify()
}

// PlayTrack 显式选中播放序列中下标为 i 的曲目并播放
// ref 非 nil 时先切换活动歌单再选中（从另一歌单点歌的场景）
func (p *Player) PlayTrack(i int, ref *PlaylistRef) {
	p.mu.Lock()
	if ref != nil && !ref.Equal(p.active) {
		p.active = *ref
		p.resolved = ResolveVisible(p.active, p.search, p.songs, p.playlists)
		p.seq.Rebuild(len(p.resolved), -1)
	}
	if i < 0 || i >= len(p.resolved) {
		logger.Warn("Track index out of range",
			logger.Int("index", i),
			logger.Int("queue", len(p.resolved)))
		p.mu.Unlock()
		return
	}
	p.seq.Select(i)
	p.startCurrent()
	p.mu.Unlock()
	p.notify()
}

// TogglePlayPause 播放/暂停切换
// 无选中曲目但序列非空时从头开始播放
func (p *Player) TogglePlayPause() {
	p.mu.Lock()
	if _, ok := p.seq.Current(); !ok {
		if len(p.resolved) > 0 {
			p.seq.Select(p.seq.Order()[0])
			p.startCurrent()
		}
		p.mu.Unlock()
		p.notify()
		return
	}
	p.session.Toggle()
	p.mu.Unlock()
	p.notify()
}

// PlayNext 显式切到下一首
// 不循环时在序列末尾停止播放但保留选中曲目，这与上一首的无条件回绕
// 是有意的不对称
func (p *Player) PlayNext() {
	p.mu.Lock()
	if _, ok := p.seq.Next(); ok {
		p.startCurrent()
	} else {
		p.session.Pause()
	}
	p.mu.Unlock()
	p.notify()
}

// PlayPrevious 显式切到上一首，无条件按模回绕
func (p *Player) PlayPrevious() {
	p.mu.Lock()
	if _, ok := p.seq.Previous(); ok {
		p.startCurrent()
	}
	p.mu.Unlock()
	p.notify()
}

// Seek 跳转进度
func (p *Player) Seek(seconds float64) {
	p.mu.Lock()
	p.session.Seek(seconds)
	p.mu.Unlock()
	p.notify()
}

// SetVolume 设置音量
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	p.session.SetVolume(v)
	p.mu.Unlock()
	p.notify()
}

// ToggleMute 切换静音
func (p *Player) ToggleMute() {
	p.mu.Lock()
	p.session.ToggleMute()
	p.mu.Unlock()
	p.notify()
}

// ToggleShuffle 切换随机播放，重算排列但保证正在播的歌不变
func (p *Player) ToggleShuffle() {
	p.mu.Lock()
	p.seq.SetShuffled(!p.seq.Shuffled())
	p.mu.Unlock()
	p.notify()
}

// SetRepeatMode 设置循环模式
func (p *Player) SetRepeatMode(mode RepeatMode) {
	p.mu.Lock()
	p.seq.SetRepeat(mode)
	p.mu.Unlock()
	p.notify()
}

// ReportProgress 输出端上报播放进度与时长
func (p *Player) ReportProgress(currentTime, duration float64) {
	p.mu.Lock()
	p.session.ReportTime(currentTime)
	if duration > 0 {
		p.session.ReportDuration(duration)
	}
	p.mu.Unlock()
}

// ReportEnded 输出端上报曲目自然播完
func (p *Player) ReportEnded() {
	p.mu.Lock()
	p.session.ReportTime(0)
	p.mu.Unlock()
	p.handleEnded()
}

// State 返回当前状态快照
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// Restore 从持久化快照恢复播放器设置
// 只恢复范围、搜索词、顺序与音量偏好，不恢复播放中的进度
func (p *Player) Restore(active PlaylistRef, search string, shuffled bool, repeat RepeatMode, volume float64, muted bool) {
	p.mu.Lock()
	p.active = active
	p.search = search
	if shuffled != p.seq.Shuffled() {
		p.seq.SetShuffled(shuffled)
	}
	p.seq.SetRepeat(repeat)
	p.session.SetVolume(volume)
	if muted {
		p.session.ToggleMute()
	}
	p.rebuild()
	p.mu.Unlock()
}

// handleEnded 曲目自然播完：repeat==one 重播当前，否则推进到下一首
// 序列末尾且不循环时停止播放，选中曲目保持不变
func (p *Player) handleEnded() {
	p.mu.Lock()
	if _, replay, ok := p.seq.OnTrackEnded(); ok {
		if replay {
			logger.Debug("Replaying current track", logger.String("songId", p.currentSongID))
		}
		p.startCurrent()
	} else {
		p.session.Pause()
	}
	p.mu.Unlock()
	p.notify()
}

// rebuild 重算播放序列并按身份重新定位当前曲目
func (p *Player) rebuild() {
	p.resolved = ResolveVisible(p.active, p.search, p.songs, p.playlists)

	newIdx := -1
	if p.currentSongID != "" {
		for i, s := range p.resolved {
			if s.ID == p.currentSongID {
				newIdx = i
				break
			}
		}
	}
	p.seq.Rebuild(len(p.resolved), newIdx)
	if newIdx < 0 && p.currentSongID != "" {
		// 正在播的歌已不在可见序列中
		p.stopCurrent()
	}
}

// startCurrent 按序列器的当前选中加载并播放
func (p *Player) startCurrent() {
	idx, ok := p.seq.Current()
	if !ok || idx >= len(p.resolved) {
		p.stopCurrent()
		return
	}
	song := p.resolved[idx]
	p.currentSongID = song.ID
	p.session.LoadAndPlay(song.FileURL)
}

// stopCurrent 停止播放并清除选中
func (p *Player) stopCurrent() {
	p.currentSongID = ""
	p.session.Stop()
}

// snapshot 调用方需持锁
func (p *Player) snapshot() State {
	st := State{
		ActivePlaylist: p.active,
		SearchQuery:    p.search,
		CurrentIndex:   -1,
		Queue:          p.resolved,
		IsPlaying:      p.session.IsPlaying(),
		CurrentTime:    p.session.CurrentTime(),
		Duration:       p.session.Duration(),
		Volume:         p.session.Volume(),
		Muted:          p.session.Muted(),
		Shuffled:       p.seq.Shuffled(),
		RepeatMode:     p.seq.Repeat(),
	}
	if idx, ok := p.seq.Current(); ok && idx < len(p.resolved) {
		st.CurrentIndex = idx
		st.CurrentSong = p.resolved[idx]
	}
	return st
}

// notify 在锁外触发状态变化回调
func (p *Player) notify() {
	p.mu.Lock()
	fn := p.onChange
	st := p.snapshot()
	p.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}
