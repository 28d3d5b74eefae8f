package player

import (
	"math/rand"
)

// RepeatMode 循环模式
type RepeatMode string

const (
	RepeatNone RepeatMode = "none"
	RepeatAll  RepeatMode = "all"
	RepeatOne  RepeatMode = "one"
)

// Sequencer 维护当前歌单的播放顺序
// order 是 [0,N) 上的一个排列，position 指向 order 的槽位而不是歌单下标
type Sequencer struct {
	shuffled bool
	repeat   RepeatMode
	order    []int
	position int // -1 表示无选中曲目
}

// NewSequencer 创建一个空序列器
func NewSequencer() *Sequencer {
	return &Sequencer{repeat: RepeatNone, position: -1}
}

// Shuffled 是否处于随机播放
func (s *Sequencer) Shuffled() bool { return s.shuffled }

// Repeat 当前循环模式
func (s *Sequencer) Repeat() RepeatMode { return s.repeat }

// SetRepeat 设置循环模式
func (s *Sequencer) SetRepeat(mode RepeatMode) {
	switch mode {
	case RepeatNone, RepeatAll, RepeatOne:
		s.repeat = mode
	}
}

// Order 返回当前排列的副本
func (s *Sequencer) Order() []int {
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

// Len 当前序列长度
func (s *Sequencer) Len() int { return len(s.order) }

// Current 返回当前曲目的歌单下标
func (s *Sequencer) Current() (int, bool) {
	if s.position < 0 || s.position >= len(s.order) {
		return 0, false
	}
	return s.order[s.position], true
}

// Rebuild 在歌单成员变化后重建排列
// currentIdx 是当前曲目在新歌单中的下标（按身份重新定位后传入），-1 表示无曲目
// 重建后当前曲目保持不变，只是在新排列中重新定位
func (s *Sequencer) Rebuild(n int, currentIdx int) {
	s.order = s.permutation(n)
	s.locate(currentIdx)
}

// SetShuffled 切换随机播放并重算排列
// 若有曲目在播，必须在新排列中找到它的新位置，保证可听的曲目不变
func (s *Sequencer) SetShuffled(on bool) {
	current := -1
	if idx, ok := s.Current(); ok {
		current = idx
	}
	s.shuffled = on
	s.order = s.permutation(len(s.order))
	s.locate(current)
}

// Select 显式选中歌单下标 i：position 指向 order 中值为 i 的槽位
func (s *Sequencer) Select(i int) bool {
	for slot, idx := range s.order {
		if idx == i {
			s.position = slot
			return true
		}
	}
	return false
}

// Next 前进一位
// 到达序列末尾时：repeat==all 回绕到 order[0]；repeat==none 不推进（返回ok=false，
// 播放停止但选中曲目保持不变，之后切到 all 再前进会从末尾回绕）；
// repeat==one 不影响显式的"下一首"
func (s *Sequencer) Next() (int, bool) {
	if len(s.order) == 0 || s.position < 0 {
		return 0, false
	}
	if s.position+1 >= len(s.order) {
		if s.repeat == RepeatAll {
			s.position = 0
			return s.order[0], true
		}
		return 0, false
	}
	s.position++
	return s.order[s.position], true
}

// Previous 后退一位，无条件按模回绕
func (s *Sequencer) Previous() (int, bool) {
	if len(s.order) == 0 || s.position < 0 {
		return 0, false
	}
	s.position = (s.position - 1 + len(s.order)) % len(s.order)
	return s.order[s.position], true
}

// OnTrackEnded 自然播完一首后的推进
// repeat==one 时重播当前曲目，否则行为与 Next 相同
// 返回 (歌单下标, 是否重播当前, 是否还有曲目)
func (s *Sequencer) OnTrackEnded() (int, bool, bool) {
	if s.repeat == RepeatOne {
		if idx, ok := s.Current(); ok {
			return idx, true, true
		}
		return 0, false, false
	}
	idx, ok := s.Next()
	return idx, false, ok
}

// permutation 生成 [0,n) 的排列：关闭随机时为恒等排列，开启时为Fisher-Yates洗牌
func (s *Sequencer) permutation(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if s.shuffled {
		for i := n - 1; i > 0; i-- {
			j := rand.Intn(i + 1)
			order[i], order[j] = order[j], order[i]
		}
	}
	return order
}

// locate 将 position 指向 order 中值为 idx 的槽位，找不到则清除选中
func (s *Sequencer) locate(idx int) {
	if idx < 0 {
		s.position = -1
		return
	}
	if !s.Select(idx) {
		s.position = -1
	}
}
