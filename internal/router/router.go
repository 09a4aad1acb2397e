// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口,聚合所有子模块的路由
package router

import (
	"vesper_chat_server/internal/handler"

	"github.com/gin-gonic/gin"
)

// Router 路由管理器,持有 Handler 聚合
type Router struct {
	handlers *handler.Handlers
}

func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由,在 https_server.Init() 中调用
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	rt.RegisterUserRoutes(r)      // 账号与用户资料路由
	rt.RegisterWebSocketRoutes(r) // WebSocket 路由
}
