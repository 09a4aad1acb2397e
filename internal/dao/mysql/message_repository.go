package mysql

import (
	"vesper_chat_server/internal/dao"
	"vesper_chat_server/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db           *gorm.DB
	retentionCap int
}

// NewMessageRepository 创建消息 Repository
// retentionCap 是全表保留上限，Create 超限后按 ID 淘汰最旧的消息
func NewMessageRepository(db *gorm.DB, retentionCap int) dao.MessageRepository {
	return &messageRepository{db: db, retentionCap: retentionCap}
}

// Create 追加消息
// 写入后若超出保留上限，删除最旧的一批；ID 即插入顺序，按 ID 淘汰即 FIFO
func (r *messageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return wrapDBError(err, "创建消息")
	}
	if r.retentionCap > 0 {
		var count int64
		if err := r.db.Model(&model.Message{}).Count(&count).Error; err != nil {
			return wrapDBError(err, "统计消息数")
		}
		if excess := count - int64(r.retentionCap); excess > 0 {
			if err := r.db.Where("id IN (?)",
				r.db.Model(&model.Message{}).Select("id").Order("id ASC").Limit(int(excess)),
			).Delete(&model.Message{}).Error; err != nil {
				return wrapDBError(err, "淘汰过期消息")
			}
		}
	}
	return nil
}

// FindGlobal 返回全局房间最近的 limit 条消息，按 ID 升序
// 先按 ID 倒序取最近 N 条，再反转为最旧在前
func (r *messageRepository) FindGlobal(limit int) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Where("room_type = ?", model.RoomGlobal).
		Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, wrapDBError(err, "查询全局消息")
	}
	reverse(messages)
	return messages, nil
}

// FindByUserPair 返回无序用户对私聊房间最近的 limit 条消息，按 ID 升序
// 两个方向（a→b 与 b→a）都算同一房间
func (r *messageRepository) FindByUserPair(a, b int64, limit int) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Where("room_type = ?", model.RoomPrivate).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询私聊消息 user1=%d user2=%d", a, b)
	}
	reverse(messages)
	return messages, nil
}

// MarkRead 将 sender→receiver 方向的全部未读消息置为已读
// 只翻转 false→true，返回实际翻转的条数（幂等：第二次调用影响 0 条）
func (r *messageRepository) MarkRead(senderID, receiverID int64) (int64, error) {
	res := r.db.Model(&model.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read_status = ?", senderID, receiverID, false).
		Update("read_status", true)
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "标记已读 sender=%d receiver=%d", senderID, receiverID)
	}
	return res.RowsAffected, nil
}

// UnreadCount 接收者的未读消息总数
func (r *messageRepository) UnreadCount(receiverID int64) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Message{}).
		Where("receiver_id = ? AND read_status = ?", receiverID, false).
		Count(&count).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计未读消息 receiver=%d", receiverID)
	}
	return count, nil
}

// reverse 原地反转消息切片
func reverse(messages []model.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
