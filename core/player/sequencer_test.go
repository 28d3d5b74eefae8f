package player

import (
	"testing"
)

func TestSequencerIdentityOrderWhenNotShuffled(t *testing.T) {
	s := NewSequencer()
	s.Rebuild(4, -1)
	for i, v := range s.Order() {
		if v != i {
			t.Fatalf("expected identity permutation, got %v", s.Order())
		}
	}
	if _, ok := s.Current(); ok {
		t.Fatal("no track should be selected after rebuild with -1")
	}
}

func TestSequencerShuffleProducesPermutation(t *testing.T) {
	s := NewSequencer()
	s.Rebuild(8, -1)
	s.SetShuffled(true)

	order := s.Order()
	if len(order) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(order))
	}
	seen := make(map[int]bool)
	for _, v := range order {
		if v < 0 || v >= 8 || seen[v] {
			t.Fatalf("order is not a permutation: %v", order)
		}
		seen[v] = true
	}
}

func TestSequencerShufflePreservesCurrent(t *testing.T) {
	s := NewSequencer()
	s.Rebuild(10, -1)
	s.Select(4)

	s.SetShuffled(true)
	if idx, ok := s.Current(); !ok || idx != 4 {
		t.Fatalf("current track must survive shuffle toggle, got %d", idx)
	}
	s.SetShuffled(false)
	if idx, ok := s.Current(); !ok || idx != 4 {
		t.Fatalf("current track must survive unshuffle, got %d", idx)
	}
}

func TestSequencerNextHaltsAtEndWithoutRepeat(t *testing.T) {
	s := NewSequencer()
	s.Rebuild(2, -1)
	s.Select(0)

	if idx, ok := s.Next(); !ok || idx != 1 {
		t.Fatalf("expected advance to 1, got %d ok=%v", idx, ok)
	}
	if _, ok := s.Next(); ok {
		t.Fatal("next at end without repeat must halt")
	}
	// 停止时选中曲目保持不变
	if idx, ok := s.Current(); !ok || idx != 1 {
		t.Fatalf("halt must keep the selection, got %d ok=%v", idx, ok)
	}

	// 切到列表循环后再前进，从末尾回绕
	s.SetRepeat(RepeatAll)
	if idx, ok := s.Next(); !ok || idx != 0 {
		t.Fatalf("next after switching to repeat all should wrap, got %d ok=%v", idx, ok)
	}
}

func TestSequencerNextWrapsWithRepeatAll(t *testing.T) {
	s := NewSequencer()
	s.Rebuild(2, -1)
	s.SetRepeat(RepeatAll)
	s.Select(1)

	if idx, ok := s.Next(); !ok || idx != 0 {
		t.Fatalf("repeat all should wrap to the first slot, got %d ok=%v", idx, ok)
	}
}

func TestSequencerPreviousWrapsUnconditionally(t *testing.T) {
	s := NewSequencer()
	s.Rebuild(3, -1)
	s.Select(0)

	if idx, ok := s.Previous(); !ok || idx != 2 {
		t.Fatalf("previous at the start should wrap to the last slot, got %d ok=%v", idx, ok)
	}
}

func TestSequencerRepeatOneOnlyAffectsNaturalEnd(t *testing.T) {
	s := NewSequencer()
	s.Rebuild(3, -1)
	s.SetRepeat(RepeatOne)
	s.Select(1)

	// 自然播完：重播当前
	idx, replay, ok := s.OnTrackEnded()
	if !ok || !replay || idx != 1 {
		t.Fatalf("repeat one should replay track 1, got idx=%d replay=%v ok=%v", idx, replay, ok)
	}

	// 显式下一首：正常推进
	if idx, ok := s.Next(); !ok || idx != 2 {
		t.Fatalf("explicit next must not be affected by repeat one, got %d ok=%v", idx, ok)
	}
}

func TestSequencerRebuildRelocatesCurrent(t *testing.T) {
	s := NewSequencer()
	s.Rebuild(3, -1)
	s.Select(2)

	// 成员变化后当前曲目的新下标由调用方按身份传入
	s.Rebuild(2, 1)
	if idx, ok := s.Current(); !ok || idx != 1 {
		t.Fatalf("expected relocated current at 1, got %d ok=%v", idx, ok)
	}

	// 当前曲目已不在序列中
	s.Rebuild(2, -1)
	if _, ok := s.Current(); ok {
		t.Fatal("selection should be cleared when the track left the sequence")
	}
}

func TestSequencerEmpty(t *testing.T) {
	s := NewSequencer()
	s.Rebuild(0, -1)
	if _, ok := s.Next(); ok {
		t.Fatal("next on empty sequence must not advance")
	}
	if _, ok := s.Previous(); ok {
		t.Fatal("previous on empty sequence must not advance")
	}
}
