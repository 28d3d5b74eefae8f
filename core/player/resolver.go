package player

import (
	"strings"

	"harmonyhub/model"
)

// RefKind 播放范围的种类
type RefKind string

const (
	// RefLibrary 虚拟的"全部歌曲"歌单，不落库，成员由当前可见歌曲推导
	RefLibrary RefKind = "library"
	// RefOwned 持久化歌单，按存储的songIds顺序播放
	RefOwned RefKind = "owned"
	// RefByUser 虚拟的"某用户的歌曲"歌单
	RefByUser RefKind = "byUser"
)

// PlaylistRef 以带标签的变体标识一个播放范围，取代字符串前缀约定
type PlaylistRef struct {
	Kind   RefKind `json:"kind"`
	ID     string  `json:"id,omitempty"`     // Kind == RefOwned 时有效
	UserID int64   `json:"userId,omitempty"` // Kind == RefByUser 时有效
}

// LibraryRef 返回虚拟曲库引用
func LibraryRef() PlaylistRef {
	return PlaylistRef{Kind: RefLibrary}
}

// OwnedRef 返回持久化歌单引用
func OwnedRef(id string) PlaylistRef {
	return PlaylistRef{Kind: RefOwned, ID: id}
}

// ByUserRef 返回"某用户的歌曲"虚拟引用
func ByUserRef(userID int64) PlaylistRef {
	return PlaylistRef{Kind: RefByUser, UserID: userID}
}

// Equal 判断两个引用是否指向同一播放范围
func (r PlaylistRef) Equal(other PlaylistRef) bool {
	return r.Kind == other.Kind && r.ID == other.ID && r.UserID == other.UserID
}

// Resolve 将播放范围解析为有序的歌曲序列
// 持久化歌单按songIds存储顺序映射，悬空的引用（歌曲已删除）被静默丢弃
func Resolve(ref PlaylistRef, songs []*model.Song, playlists []*model.Playlist) []*model.Song {
	switch ref.Kind {
	case RefLibrary:
		return songs
	case RefByUser:
		filtered := make([]*model.Song, 0)
		for _, s := range songs {
			if s.UserID == ref.UserID {
				filtered = append(filtered, s)
			}
		}
		return filtered
	case RefOwned:
		var playlist *model.Playlist
		for _, p := range playlists {
			if p.ID == ref.ID {
				playlist = p
				break
			}
		}
		if playlist == nil {
			return []*model.Song{}
		}

		byID := make(map[string]*model.Song, len(songs))
		for _, s := range songs {
			byID[s.ID] = s
		}

		resolved := make([]*model.Song, 0, len(playlist.SongIDs))
		for _, id := range playlist.SongIDs {
			if s, ok := byID[id]; ok {
				resolved = append(resolved, s)
			}
		}
		return resolved
	}
	return []*model.Song{}
}

// Search 在整个可见歌曲集合上做大小写不敏感的子串匹配
// 命中条件：query是title、artist或genre的子串
func Search(query string, songs []*model.Song) []*model.Song {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return songs
	}

	matched := make([]*model.Song, 0)
	for _, s := range songs {
		if strings.Contains(strings.ToLower(s.Title), q) ||
			strings.Contains(strings.ToLower(s.Artist), q) ||
			strings.Contains(strings.ToLower(s.Genre), q) {
			matched = append(matched, s)
		}
	}
	return matched
}

// ResolveVisible 解析当前可见的播放序列
// 搜索词非空时优先于歌单范围：始终在全部可见歌曲上求值，与活动歌单无关
func ResolveVisible(ref PlaylistRef, query string, songs []*model.Song, playlists []*model.Playlist) []*model.Song {
	if strings.TrimSpace(query) != "" {
		return Search(query, songs)
	}
	return Resolve(ref, songs, playlists)
}
