package chat

import (
	"sync"
	"time"

	"vesper_chat_server/internal/dao"
	"vesper_chat_server/internal/model"
	"vesper_chat_server/pkg/util/snowflake"
)

// HistoryStore 消息历史的唯一写入口,ID 在锁内分配,保证与写入顺序一致递增
type HistoryStore struct {
	mu   sync.Mutex
	repo dao.MessageRepository
}

func NewHistoryStore(repo dao.MessageRepository) *HistoryStore {
	return &HistoryStore{repo: repo}
}

// Append 落库成功才返回 ID,失败的消息不会进入历史
func (s *HistoryStore) Append(message *model.Message) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	message.ID = snowflake.GenerateID()
	message.CreatedAt = time.Now()
	if err := s.repo.Create(message); err != nil {
		return 0, err
	}
	return message.ID, nil
}

// TailGlobal 公共房间最近的消息,按时间正序
func (s *HistoryStore) TailGlobal(limit int) ([]model.Message, error) {
	return s.repo.FindGlobal(limit)
}

// TailPrivate 两个用户之间最近的私聊消息,按时间正序,参数顺序无关
func (s *HistoryStore) TailPrivate(userA, userB int64, limit int) ([]model.Message, error) {
	return s.repo.FindByUserPair(userA, userB, limit)
}

// MarkRead 把 sender 发给 receiver 的未读消息全部置为已读,返回实际改动条数
func (s *HistoryStore) MarkRead(senderID, receiverID int64) (int64, error) {
	return s.repo.MarkRead(senderID, receiverID)
}

// UnreadCount 某个用户收到的未读私聊消息总数
func (s *HistoryStore) UnreadCount(receiverID int64) (int64, error) {
	return s.repo.UnreadCount(receiverID)
}
