// Package memory 提供存储协作方的内存实现
// 与 mysql 实现暴露同一套 Repository 接口，核心不感知差异
// 适合开发环境和测试，进程退出后数据即丢失
package memory

import (
	"vesper_chat_server/internal/dao"
)

// Init 创建内存 Repository 聚合
// retentionCap: 消息保留上限，超出后 FIFO 淘汰
func Init(retentionCap int) *dao.Repositories {
	return &dao.Repositories{
		User:    NewUserRepository(),
		Message: NewMessageRepository(retentionCap),
	}
}
