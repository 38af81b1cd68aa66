// Package live 通过 WebSocket 向正在查看某首歌的客户端推送乐谱更新。
package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"Chordbook/logger"
	"Chordbook/model"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// MessageType 消息类型
type MessageType string

const (
	MsgTypeScoreUpdated MessageType = "score_updated" // 乐谱已更新
	MsgTypePing         MessageType = "ping"          // 心跳
	MsgTypePong         MessageType = "pong"          // 心跳响应
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 16
)

// WSMessage WebSocket 消息结构
type WSMessage struct {
	Type      MessageType     `json:"type"`
	TrackID   string          `json:"trackId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// ScoreUpdatedData score_updated 的 data 字段
type ScoreUpdatedData struct {
	Sections []model.SectionBlock `json:"sections"`
}

// Client 一个订阅连接
type Client struct {
	ID      string
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	TrackID string

	closed bool // Send 已被 Hub 关闭，由 Hub.mu 保护
}

type broadcastMessage struct {
	trackID string
	message []byte
}

// Hub 按曲目分组管理订阅连接
type Hub struct {
	tracks map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu   sync.RWMutex
	done chan struct{}
	once sync.Once

	upgrader websocket.Upgrader
}

// NewHub 创建 Hub，需要调用 Run 启动
func NewHub() *Hub {
	return &Hub{
		tracks:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run 主循环，ctx 取消或 Stop 后返回
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.mu.Lock()
			h.removeClient(client)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.broadcastToTrack(msg)
		case <-ctx.Done():
			h.Stop()
			h.cleanup()
			return
		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop 停止 Hub
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.tracks[client.TrackID] == nil {
		h.tracks[client.TrackID] = make(map[*Client]bool)
	}
	h.tracks[client.TrackID][client] = true

	logger.Info("client subscribed",
		logger.String("trackId", client.TrackID),
		logger.String("client", client.ID))
}

// removeClient 需要持有锁
func (h *Hub) removeClient(client *Client) {
	clients, ok := h.tracks[client.TrackID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	client.closeSend()
	if len(clients) == 0 {
		delete(h.tracks, client.TrackID)
	}

	logger.Info("client unsubscribed",
		logger.String("trackId", client.TrackID),
		logger.String("client", client.ID))
}

func (h *Hub) broadcastToTrack(msg *broadcastMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.tracks[msg.trackID] {
		select {
		case client.Send <- msg.message:
		default:
			// 发送缓冲区满，移除客户端
			h.removeClient(client)
		}
	}
}

// closeSend 需要持有 Hub 写锁
func (c *Client) closeSend() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// enqueue 读协程往 Send 投递消息，Send 已关闭或缓冲区满时丢弃
func (c *Client) enqueue(message []byte) bool {
	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.tracks {
		for client := range clients {
			client.closeSend()
		}
	}
	h.tracks = make(map[string]map[*Client]bool)
}

// ClientCount 某首歌当前的订阅数
func (h *Hub) ClientCount(trackID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tracks[trackID])
}

// NotifyScoreUpdated 广播新的段落块
func (h *Hub) NotifyScoreUpdated(trackID string, sections []model.SectionBlock) {
	if sections == nil {
		sections = []model.SectionBlock{}
	}
	data, err := json.Marshal(ScoreUpdatedData{Sections: sections})
	if err != nil {
		logger.Error("encode score update failed", logger.ErrorField(err))
		return
	}
	message, err := json.Marshal(&WSMessage{
		Type:      MsgTypeScoreUpdated,
		TrackID:   trackID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		logger.Error("encode score update failed", logger.ErrorField(err))
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{trackID: trackID, message: message}:
	case <-h.done:
	}
}

// ServeWS 升级连接并订阅 trackID
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, trackID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ErrorField(err), logger.String("trackId", trackID))
		return
	}

	client := &Client{
		ID:      uuid.NewString(),
		Hub:     h,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		TrackID: trackID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ReadPump 只处理心跳，其他消息忽略
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregisterClient(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error",
					logger.ErrorField(err),
					logger.String("trackId", c.TrackID))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.Type != MsgTypePing {
			continue
		}

		pong, err := json.Marshal(&WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		if err != nil {
			continue
		}
		c.enqueue(pong)
	}
}

// WritePump 写入消息循环，每条消息单独一帧
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
