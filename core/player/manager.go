package player

import "sync"

// TransportFactory 为新建播放器绑定输出端
type TransportFactory func(userID int64) Transport

// Manager 按用户维护播放器实例，懒加载
type Manager struct {
	mu        sync.Mutex
	players   map[int64]*Player
	transport TransportFactory

	// onCreate 播放器首次创建时的回调，用于恢复快照与接入推送
	onCreate func(*Player)
}

// NewManager 创建播放器管理器
func NewManager(transport TransportFactory, onCreate func(*Player)) *Manager {
	return &Manager{
		players:   make(map[int64]*Player),
		transport: transport,
		onCreate:  onCreate,
	}
}

// Get 获取用户的播放器，不存在则创建
func (m *Manager) Get(userID int64) *Player {
	m.mu.Lock()
	p, ok := m.players[userID]
	if !ok {
		p = NewPlayer(userID, m.transport(userID))
		m.players[userID] = p
		m.mu.Unlock()
		if m.onCreate != nil {
			m.onCreate(p)
		}
		return p
	}
	m.mu.Unlock()
	return p
}

// Peek 获取用户的播放器，不存在时返回 nil
func (m *Manager) Peek(userID int64) *Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[userID]
}

// All 返回全部在线播放器，曲库变化时用于批量刷新读模型
func (m *Manager) All() []*Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	return out
}
