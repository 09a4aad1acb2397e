// Package dao 定义存储协作方接口
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 同一套接口有 mysql 和 memory 两种实现，核心不感知当前启用的是哪一种
package dao

import (
	"vesper_chat_server/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	// Create 创建新用户；用户名冲突返回 CodeUserExist
	Create(user *model.UserInfo) error
	// FindByUsername 根据用户名查找用户；不存在返回 CodeNotFound
	FindByUsername(username string) (*model.UserInfo, error)
	// FindByID 根据 ID 查找用户；不存在返回 CodeNotFound
	FindByID(id int64) (*model.UserInfo, error)
	// FindAll 查找所有用户
	FindAll() ([]model.UserInfo, error)
	// UpdateOnlineStatus 更新在线标志并刷新最近活跃时间
	UpdateOnlineStatus(id int64, online bool) error
	// CountAll 用户总数
	CountAll() (int64, error)
	// CountOnline 在线用户数
	CountOnline() (int64, error)
}

// MessageRepository 消息数据访问接口
// 只追加：除 MarkRead 翻转标志位外，消息一经写入不可修改、不可删除
// （保留上限淘汰是唯一的删除路径）
type MessageRepository interface {
	// Create 追加消息；超出保留上限时按 FIFO 淘汰最旧的消息
	Create(message *model.Message) error
	// FindGlobal 返回全局房间最近的 limit 条消息，按 ID 升序（最旧在前）
	FindGlobal(limit int) ([]model.Message, error)
	// FindByUserPair 返回 a、b 无序对私聊房间最近的 limit 条消息，按 ID 升序
	FindByUserPair(a, b int64, limit int) ([]model.Message, error)
	// MarkRead 将 sender→receiver 方向的全部未读消息置为已读，返回翻转条数
	MarkRead(senderID, receiverID int64) (int64, error)
	// UnreadCount 接收者的未读消息总数
	UnreadCount(receiverID int64) (int64, error)
}

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层和聊天核心通过此结构访问数据层
type Repositories struct {
	User    UserRepository
	Message MessageRepository
}
