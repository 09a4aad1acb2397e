// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
package handler

import (
	"vesper_chat_server/internal/service"
)

// Handlers 聚合所有 Handler 实例,Router 层通过此结构挂路由
type Handlers struct {
	User *UserHandler
	Ws   *WsHandler
}

// NewHandlers 创建并注入所有 Handler 实例
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		User: NewUserHandler(svc.User),
		Ws:   NewWsHandler(svc.Hub, svc.User),
	}
}
