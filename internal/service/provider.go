// Package service 业务逻辑层的组装入口
package service

import (
	"vesper_chat_server/internal/dao"
	"vesper_chat_server/internal/service/chat"
	"vesper_chat_server/internal/service/user"
)

// Services 聚合所有业务服务实例
type Services struct {
	User *user.Service
	Hub  *chat.Hub
}

// NewServices 创建业务服务集合,archiver 传 nil 表示不启用消息归档
func NewServices(repos *dao.Repositories, archiver chat.MessageArchiver) *Services {
	return &Services{
		User: user.NewService(repos),
		Hub:  chat.NewHub(repos, archiver),
	}
}
