package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"harmonyhub/core/auth"
	"harmonyhub/core/player"
	"harmonyhub/logger"
)

// MessageType 推送消息类型
type MessageType string

const (
	MsgTypeState   MessageType = "state"   // 播放器状态快照
	MsgTypeTask    MessageType = "task"    // 上传任务变化
	MsgTypeCommand MessageType = "command" // 下发给输出端的传输指令
	MsgTypeReport  MessageType = "report"  // 输出端上报进度
	MsgTypePing    MessageType = "ping"    // 心跳
	MsgTypePong    MessageType = "pong"    // 心跳响应
)

// WSMessage WebSocket 消息结构
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Client 单条 WebSocket 连接
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
}

// Hub 按用户维护推送连接，同一用户可以有多个设备同时在线
type Hub struct {
	mu    sync.RWMutex
	users map[int64]map[*Client]bool
}

// NewHub 创建推送中心
func NewHub() *Hub {
	return &Hub{users: make(map[int64]map[*Client]bool)}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[c.userID] == nil {
		h.users[c.userID] = make(map[*Client]bool)
	}
	h.users[c.userID][c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.users[c.userID]; ok {
		if clients[c] {
			delete(clients, c)
			close(c.send)
			if len(clients) == 0 {
				delete(h.users, c.userID)
			}
		}
	}
}

// Publish 向某用户的全部在线连接推送一条消息
// 发送缓冲满的连接直接丢弃该条消息，不阻塞推送方
func (h *Hub) Publish(userID int64, msgType MessageType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("Failed to marshal push payload", logger.ErrorField(err))
		return
	}
	raw, err := json.Marshal(&WSMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.users[userID] {
		select {
		case c.send <- raw:
		default:
		}
	}
}

// commandSink 把播放器的传输指令接到用户的推送通道上
type commandSink struct {
	hub    *Hub
	userID int64
}

func (s commandSink) SendCommand(cmd player.TransportCommand) {
	s.hub.Publish(s.userID, MsgTypeCommand, cmd)
}

// NewTransportFactory 为播放器管理器提供基于推送通道的输出端
func NewTransportFactory(hub *Hub) player.TransportFactory {
	return func(userID int64) player.Transport {
		return player.NewRemoteTransport(commandSink{hub: hub, userID: userID})
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 跨域策略已由 CORS 中间件统一处理
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler 建立推送连接
// 浏览器的 WebSocket 不能带自定义头，token 从查询参数里取
func (h *APIHandler) WSHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "token query parameter is required")
		return
	}
	claims, err := auth.ParseToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Failed to upgrade websocket", logger.ErrorField(err))
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: claims.UserID,
	}
	h.hub.register(client)

	go client.writePump()
	go client.readPump(h)

	// 连接建立后立即推一次当前状态
	p := h.players.Get(claims.UserID)
	h.refreshPlayer(p)
	h.hub.Publish(claims.UserID, MsgTypeState, p.State())
}

// readPump 读取循环，处理心跳与输出端上报
func (c *Client) readPump(h *APIHandler) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Websocket read error",
					logger.Int64("user", c.userID),
					logger.ErrorField(err))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn("Invalid websocket message", logger.Int64("user", c.userID))
			continue
		}

		switch msg.Type {
		case MsgTypePing:
			pong, _ := json.Marshal(&WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
			select {
			case c.send <- pong:
			default:
			}
		case MsgTypeReport:
			var report struct {
				CurrentTime float64 `json:"currentTime"`
				Duration    float64 `json:"duration"`
				Ended       bool    `json:"ended"`
			}
			if err := json.Unmarshal(msg.Data, &report); err != nil {
				continue
			}
			p := h.players.Get(c.userID)
			p.ReportProgress(report.CurrentTime, report.Duration)
			if report.Ended {
				h.refreshPlayer(p)
				p.ReportEnded()
			}
		}
	}
}

// writePump 写入循环，定期发送协议层心跳
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
