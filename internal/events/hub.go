// Package events 按用户推送的轻量通知（Server-Sent Events）。
// 推送是尽力而为：没有订阅者或缓冲已满时直接丢弃，不影响业务请求。
package events

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/r3labs/sse/v2"

	log "MoriTags/internal/log"
)

// 事件类型
const (
	CustomTagAdded    = "custom_tag.added"
	CustomTagDeleted  = "custom_tag.deleted"
	CollectionSaved   = "collection.saved"
	CollectionDeleted = "collection.deleted"
)

// Event 推送给客户端的事件体
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
	Time time.Time   `json:"time"`
}

// Notifier 通知出口
type Notifier interface {
	Publish(ownerID int64, eventType string, data interface{})
}

// Nop 不做任何事的 Notifier
type Nop struct{}

func (Nop) Publish(int64, string, interface{}) {}

// Hub 基于 r3labs/sse 的服务端，每个用户一个 stream
type Hub struct {
	server *sse.Server

	mu          sync.Mutex
	subscribers map[string]int
}

// NewHub 创建 Hub；stream 在首个订阅者连接时创建，最后一个离开时移除
func NewHub() *Hub {
	h := &Hub{subscribers: make(map[string]int)}
	h.server = sse.NewWithCallback(h.onSubscribe, h.onUnsubscribe)
	h.server.AutoStream = true
	h.server.AutoReplay = false
	h.server.BufferSize = 64
	h.server.Headers["X-Accel-Buffering"] = "no"
	return h
}

// StreamID 用户对应的 stream 名称
func StreamID(ownerID int64) string {
	return "user-" + strconv.FormatInt(ownerID, 10)
}

// Publish 推送事件，失败只记录日志
func (h *Hub) Publish(ownerID int64, eventType string, data interface{}) {
	id := StreamID(ownerID)
	if !h.Listening(ownerID) {
		return
	}

	payload, err := json.Marshal(Event{Type: eventType, Data: data, Time: time.Now()})
	if err != nil {
		log.Warnf("序列化事件 %s 失败: %v", eventType, err)
		return
	}

	if !h.server.TryPublish(id, &sse.Event{Event: []byte(eventType), Data: payload}) {
		log.Debugf("事件 %s 未能推送到 %s", eventType, id)
	}
}

// Listening 用户当前是否有订阅者
func (h *Hub) Listening(ownerID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.subscribers[StreamID(ownerID)] > 0
}

// Serve 把当前连接挂到用户的 stream 上，阻塞直到客户端断开
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, ownerID int64) {
	q := r.URL.Query()
	q.Set("stream", StreamID(ownerID))

	req := r.Clone(r.Context())
	req.URL.RawQuery = q.Encode()
	h.server.ServeHTTP(w, req)
}

// Close 关闭所有 stream
func (h *Hub) Close() {
	h.server.Close()
}

func (h *Hub) onSubscribe(streamID string, _ *sse.Subscriber) {
	h.mu.Lock()
	h.subscribers[streamID]++
	n := h.subscribers[streamID]
	h.mu.Unlock()
	log.Debugf("SSE 订阅 %s，当前 %d 个连接", streamID, n)
}

func (h *Hub) onUnsubscribe(streamID string, _ *sse.Subscriber) {
	h.mu.Lock()
	h.subscribers[streamID]--
	if h.subscribers[streamID] <= 0 {
		delete(h.subscribers, streamID)
	}
	h.mu.Unlock()
	log.Debugf("SSE 取消订阅 %s", streamID)
}
