package player

import (
	"testing"

	"harmonyhub/model"
)

func makeSongs() []*model.Song {
	return []*model.Song{
		{ID: "a", UserID: 1, Title: "Morning Light", Artist: "Aurora", Genre: "Pop"},
		{ID: "b", UserID: 1, Title: "Night Drive", Artist: "Neon Club", Genre: "Electronic"},
		{ID: "c", UserID: 2, Title: "Quiet Rain", Artist: "Mist", Genre: "Ambient"},
	}
}

func TestResolveLibrary(t *testing.T) {
	songs := makeSongs()
	got := Resolve(LibraryRef(), songs, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 songs, got %d", len(got))
	}
}

func TestResolveByUser(t *testing.T) {
	songs := makeSongs()
	got := Resolve(ByUserRef(1), songs, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 songs for user 1, got %d", len(got))
	}
	for _, s := range got {
		if s.UserID != 1 {
			t.Errorf("song %s does not belong to user 1", s.ID)
		}
	}
}

func TestResolveOwnedKeepsStoredOrder(t *testing.T) {
	songs := makeSongs()
	playlists := []*model.Playlist{
		{ID: "p1", UserID: 1, Name: "mix", SongIDs: []string{"c", "a"}},
	}
	got := Resolve(OwnedRef("p1"), songs, playlists)
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Fatalf("expected [c a], got %v", ids(got))
	}
}

func TestResolveOwnedDropsDanglingIDs(t *testing.T) {
	songs := makeSongs()
	playlists := []*model.Playlist{
		{ID: "p1", SongIDs: []string{"a", "deleted", "b"}},
	}
	got := Resolve(OwnedRef("p1"), songs, playlists)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("dangling id should be dropped silently, got %v", ids(got))
	}
}

func TestResolveUnknownPlaylistIsEmpty(t *testing.T) {
	if got := Resolve(OwnedRef("missing"), makeSongs(), nil); len(got) != 0 {
		t.Fatalf("unknown playlist should resolve to empty sequence, got %v", ids(got))
	}
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	songs := makeSongs()

	if got := Search("night", songs); len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("title match failed, got %v", ids(got))
	}
	if got := Search("AURORA", songs); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("artist match failed, got %v", ids(got))
	}
	if got := Search("ambient", songs); len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("genre match failed, got %v", ids(got))
	}
	if got := Search("  ", songs); len(got) != 3 {
		t.Fatalf("blank query should match everything, got %v", ids(got))
	}
}

func TestSearchSupersedesPlaylistScope(t *testing.T) {
	songs := makeSongs()
	playlists := []*model.Playlist{
		{ID: "p1", SongIDs: []string{"a"}},
	}

	// 搜索词命中的 c 不在活动歌单里，但仍应出现在结果中
	got := ResolveVisible(OwnedRef("p1"), "rain", songs, playlists)
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("search should be evaluated over the whole collection, got %v", ids(got))
	}

	// 搜索词清空后恢复歌单范围
	got = ResolveVisible(OwnedRef("p1"), "", songs, playlists)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("empty query should fall back to playlist scope, got %v", ids(got))
	}
}

func ids(songs []*model.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.ID
	}
	return out
}
