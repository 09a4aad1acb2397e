// Package model 定义数据库实体模型
// 本文件定义消息模型，用于存储全局和私聊消息
package model

import (
	"time"
)

// 房间类型取值
const (
	RoomGlobal  = "global"  // 全局房间（单例）
	RoomPrivate = "private" // 用户两两组成的私聊房间
)

// Message 消息模型
// 对应数据库 message 表
// 消息一经写入不可修改，read_status 是唯一例外（以标志位方式翻转）
type Message struct {
	// ID 消息唯一标识
	// 雪花 ID，由 HistoryStore 在追加时分配，按插入顺序严格递增
	// 房间内定序与分页都以 ID 为准，不依赖墙钟时间
	ID int64 `gorm:"column:id;primaryKey;type:bigint"`

	// RoomType 房间类型，"global" 或 "private"
	RoomType string `gorm:"column:room_type;index;type:varchar(10);not null;comment:房间类型"`

	// SenderID 发送者用户 ID，必须引用已存在的用户
	SenderID int64 `gorm:"column:sender_id;index;not null;comment:发送者id"`

	// ReceiverID 接收者用户 ID
	// 仅私聊消息使用，全局消息为 0
	ReceiverID int64 `gorm:"column:receiver_id;index;comment:接收者id"`

	// Text 消息文本内容
	Text string `gorm:"column:text;type:TEXT;not null;comment:消息内容"`

	// IsSticker 是否为贴纸消息
	IsSticker bool `gorm:"column:is_sticker;not null;default:false;comment:是否贴纸"`

	// ReadStatus 已读标志
	// 仅私聊消息有意义；只允许 false→true 的翻转
	ReadStatus bool `gorm:"column:read_status;not null;default:false;comment:已读状态"`

	// CreatedAt 写入时间
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}

// PairEqual 判断消息是否属于 a、b 两个用户组成的私聊房间
// 私聊房间以无序用户对标识，两个方向都算同一房间
func (m *Message) PairEqual(a, b int64) bool {
	if m.RoomType != RoomPrivate {
		return false
	}
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}
