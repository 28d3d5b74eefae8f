package player

import (
	"testing"

	"harmonyhub/model"
)

func newTestPlayer() (*Player, *fakeTransport) {
	ft := &fakeTransport{}
	p := NewPlayer(1, ft)
	return p, ft
}

func collection() []*model.Song {
	return []*model.Song{
		{ID: "A", UserID: 1, Title: "Alpha", FileURL: "http://x/a.mp3"},
		{ID: "B", UserID: 1, Title: "Beta", FileURL: "http://x/b.mp3"},
		{ID: "C", UserID: 1, Title: "Gamma", FileURL: "http://x/c.mp3"},
	}
}

func TestPlayerPlayTrackLoadsSource(t *testing.T) {
	p, ft := newTestPlayer()
	p.SetCollection(collection(), nil)

	p.PlayTrack(1, nil)
	st := p.State()
	if st.CurrentSong == nil || st.CurrentSong.ID != "B" {
		t.Fatalf("expected B playing, got %+v", st.CurrentSong)
	}
	if !st.IsPlaying {
		t.Fatal("player should be playing after PlayTrack")
	}
	if len(ft.loads) != 1 || ft.loads[0] != "http://x/b.mp3" {
		t.Fatalf("transport should have loaded b.mp3, loads=%v", ft.loads)
	}
}

func TestPlayerMembershipChangeRelocatesByIdentity(t *testing.T) {
	p, _ := newTestPlayer()
	p.SetCollection(collection(), nil)
	p.PlayTrack(1, nil) // B

	// 移除 A 之后 B 仍是当前曲目，下标从 1 变为 0
	p.SetCollection([]*model.Song{
		{ID: "B", UserID: 1, Title: "Beta", FileURL: "http://x/b.mp3"},
		{ID: "C", UserID: 1, Title: "Gamma", FileURL: "http://x/c.mp3"},
	}, nil)

	st := p.State()
	if st.CurrentSong == nil || st.CurrentSong.ID != "B" {
		t.Fatalf("current track must be relocated by identity, got %+v", st.CurrentSong)
	}
	if st.CurrentIndex != 0 {
		t.Fatalf("expected relocated index 0, got %d", st.CurrentIndex)
	}
}

func TestPlayerStopsWhenCurrentTrackDisappears(t *testing.T) {
	p, _ := newTestPlayer()
	p.SetCollection(collection(), nil)
	p.PlayTrack(1, nil) // B

	p.SetCollection([]*model.Song{
		{ID: "A", UserID: 1, Title: "Alpha", FileURL: "http://x/a.mp3"},
	}, nil)

	st := p.State()
	if st.CurrentSong != nil || st.IsPlaying {
		t.Fatalf("playback must stop when the current track leaves the sequence, got %+v", st)
	}
}

func TestPlayerNaturalEndAdvances(t *testing.T) {
	p, _ := newTestPlayer()
	p.SetCollection(collection(), nil)
	p.PlayTrack(0, nil)

	p.ReportEnded()
	st := p.State()
	if st.CurrentSong == nil || st.CurrentSong.ID != "B" {
		t.Fatalf("natural end should advance to B, got %+v", st.CurrentSong)
	}
}

func TestPlayerNaturalEndHaltsAtEndOfQueue(t *testing.T) {
	p, _ := newTestPlayer()
	p.SetCollection(collection(), nil)
	p.PlayTrack(2, nil)

	p.ReportEnded()
	st := p.State()
	if st.IsPlaying {
		t.Fatal("queue end without repeat must stop playback")
	}
	if st.CurrentSong == nil || st.CurrentSong.ID != "C" {
		t.Fatalf("the last track should stay selected after the halt, got %+v", st.CurrentSong)
	}
}

func TestPlayerQueueEndScenario(t *testing.T) {
	p, _ := newTestPlayer()
	p.SetCollection(collection(), nil)

	p.PlayTrack(0, nil)
	p.PlayNext() // B
	p.PlayNext() // C
	p.PlayNext() // 末尾：停止，C 保持选中

	st := p.State()
	if st.IsPlaying || st.CurrentSong == nil || st.CurrentSong.ID != "C" {
		t.Fatalf("expected halted on C, got playing=%v song=%+v", st.IsPlaying, st.CurrentSong)
	}

	p.SetRepeatMode(RepeatAll)
	p.PlayNext()
	st = p.State()
	if st.CurrentSong == nil || st.CurrentSong.ID != "A" || !st.IsPlaying {
		t.Fatalf("repeat all should wrap to A and resume, got %+v", st)
	}
}

func TestPlayerRepeatOneReplaysOnNaturalEnd(t *testing.T) {
	p, ft := newTestPlayer()
	p.SetCollection(collection(), nil)
	p.SetRepeatMode(RepeatOne)
	p.PlayTrack(1, nil)

	p.ReportEnded()
	st := p.State()
	if st.CurrentSong == nil || st.CurrentSong.ID != "B" {
		t.Fatalf("repeat one should replay B, got %+v", st.CurrentSong)
	}
	if len(ft.loads) != 2 {
		t.Fatalf("replay should reload the source, loads=%v", ft.loads)
	}
}

func TestPlayerExplicitNextIgnoresRepeatOne(t *testing.T) {
	p, _ := newTestPlayer()
	p.SetCollection(collection(), nil)
	p.SetRepeatMode(RepeatOne)
	p.PlayTrack(0, nil)

	p.PlayNext()
	st := p.State()
	if st.CurrentSong == nil || st.CurrentSong.ID != "B" {
		t.Fatalf("explicit next must advance despite repeat one, got %+v", st.CurrentSong)
	}
}

func TestPlayerPreviousWraps(t *testing.T) {
	p, _ := newTestPlayer()
	p.SetCollection(collection(), nil)
	p.PlayTrack(0, nil)

	p.PlayPrevious()
	st := p.State()
	if st.CurrentSong == nil || st.CurrentSong.ID != "C" {
		t.Fatalf("previous at the start should wrap to C, got %+v", st.CurrentSong)
	}
}

func TestPlayerShuffleKeepsNowPlaying(t *testing.T) {
	p, _ := newTestPlayer()
	p.SetCollection(collection(), nil)
	p.PlayTrack(1, nil)

	p.ToggleShuffle()
	st := p.State()
	if !st.Shuffled {
		t.Fatal("shuffle should be on")
	}
	if st.CurrentSong == nil || st.CurrentSong.ID != "B" {
		t.Fatalf("shuffle toggle must not change the audible track, got %+v", st.CurrentSong)
	}
}

func TestPlayerSearchReplacesQueue(t *testing.T) {
	p, _ := newTestPlayer()
	songs := collection()
	playlists := []*model.Playlist{{ID: "p1", UserID: 1, Name: "mix", SongIDs: []string{"A"}}}
	p.SetCollection(songs, playlists)
	p.SetActivePlaylist(OwnedRef("p1"))

	if st := p.State(); len(st.Queue) != 1 {
		t.Fatalf("playlist scope should contain only A, got %d", len(st.Queue))
	}

	p.SetSearchQuery("Gamma")
	if st := p.State(); len(st.Queue) != 1 || st.Queue[0].ID != "C" {
		t.Fatalf("search must supersede the playlist scope, got %v", st.Queue)
	}

	p.SetSearchQuery("")
	if st := p.State(); len(st.Queue) != 1 || st.Queue[0].ID != "A" {
		t.Fatalf("clearing the query should restore the playlist scope, got %v", st.Queue)
	}
}

func TestPlayerToggleFromIdleStartsFirstTrack(t *testing.T) {
	p, _ := newTestPlayer()
	p.SetCollection(collection(), nil)

	p.TogglePlayPause()
	st := p.State()
	if st.CurrentSong == nil || !st.IsPlaying {
		t.Fatalf("toggle from idle should start the first track, got %+v", st)
	}
}

func TestPlayerOnChangeFires(t *testing.T) {
	p, _ := newTestPlayer()
	var last State
	calls := 0
	p.SetOnChange(func(st State) {
		last = st
		calls++
	})

	p.SetCollection(collection(), nil)
	p.PlayTrack(0, nil)
	if calls < 2 {
		t.Fatalf("expected change notifications, got %d", calls)
	}
	if last.CurrentSong == nil || last.CurrentSong.ID != "A" {
		t.Fatalf("last notification should carry the playing track, got %+v", last.CurrentSong)
	}
}
