package memory

import (
	"sync"
	"time"

	"vesper_chat_server/internal/dao"
	"vesper_chat_server/internal/model"
)

// pairKey 私聊房间的规范化键：小 ID 在前的无序用户对
type pairKey struct {
	low, high int64
}

func makePairKey(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{low: a, high: b}
}

// messageRepository 内存消息存储
// messages 按追加顺序保存全部消息；global 与 pairs 是按房间的索引，
// 私聊查询走哈希索引而不是整表线性扫描
// 索引与主序列共享消息指针，同一把锁保护
type messageRepository struct {
	mu           sync.RWMutex
	messages     []*model.Message
	global       []*model.Message
	pairs        map[pairKey][]*model.Message
	retentionCap int
}

// NewMessageRepository 创建内存消息 Repository
func NewMessageRepository(retentionCap int) dao.MessageRepository {
	return &messageRepository{
		pairs:        make(map[pairKey][]*model.Message),
		retentionCap: retentionCap,
	}
}

// Create 追加消息
// 超出保留上限时从头部淘汰（FIFO），同时维护对应房间索引
func (r *messageRepository) Create(message *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	stored := *message
	r.messages = append(r.messages, &stored)
	if stored.RoomType == model.RoomPrivate {
		key := makePairKey(stored.SenderID, stored.ReceiverID)
		r.pairs[key] = append(r.pairs[key], &stored)
	} else {
		r.global = append(r.global, &stored)
	}

	if r.retentionCap > 0 && len(r.messages) > r.retentionCap {
		evicted := r.messages[0]
		r.messages = r.messages[1:]
		r.dropFromIndex(evicted)
	}
	return nil
}

// dropFromIndex 从房间索引中移除被淘汰的消息
// 被淘汰的是全局最旧消息，也必然是其房间索引的首元素
func (r *messageRepository) dropFromIndex(evicted *model.Message) {
	if evicted.RoomType == model.RoomPrivate {
		key := makePairKey(evicted.SenderID, evicted.ReceiverID)
		list := r.pairs[key]
		if len(list) > 0 && list[0] == evicted {
			if len(list) == 1 {
				delete(r.pairs, key)
			} else {
				r.pairs[key] = list[1:]
			}
		}
		return
	}
	if len(r.global) > 0 && r.global[0] == evicted {
		r.global = r.global[1:]
	}
}

// FindGlobal 返回全局房间最近的 limit 条消息，按 ID 升序
func (r *messageRepository) FindGlobal(limit int) ([]model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return tail(r.global, limit), nil
}

// FindByUserPair 返回无序用户对私聊房间最近的 limit 条消息，按 ID 升序
func (r *messageRepository) FindByUserPair(a, b int64, limit int) ([]model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return tail(r.pairs[makePairKey(a, b)], limit), nil
}

// MarkRead 将 sender→receiver 方向的全部未读消息置为已读，返回翻转条数
func (r *messageRepository) MarkRead(senderID, receiverID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for _, msg := range r.pairs[makePairKey(senderID, receiverID)] {
		if msg.SenderID == senderID && msg.ReceiverID == receiverID && !msg.ReadStatus {
			msg.ReadStatus = true
			affected++
		}
	}
	return affected, nil
}

// UnreadCount 接收者的未读消息总数
func (r *messageRepository) UnreadCount(receiverID int64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, msg := range r.messages {
		if msg.ReceiverID == receiverID && !msg.ReadStatus {
			count++
		}
	}
	return count, nil
}

// tail 复制列表尾部 limit 条消息，保持升序
// 追加顺序即 ID 升序，不足 limit 时返回现有全部（越界截断不是错误）
func tail(list []*model.Message, limit int) []model.Message {
	start := 0
	if limit > 0 && len(list) > limit {
		start = len(list) - limit
	}
	out := make([]model.Message, 0, len(list)-start)
	for _, msg := range list[start:] {
		out = append(out, *msg)
	}
	return out
}
