// Package router 提供 HTTP 路由注册
// 本文件定义 WebSocket 接入路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes 注册 WebSocket 路由
// token 校验在 handler 里升级连接之前完成,不走 JWTAuth 中间件
// 请求示例: ws://host:port/ws?token=xxx
func (rt *Router) RegisterWebSocketRoutes(r *gin.Engine) {
	r.GET("/ws", rt.handlers.Ws.Connect)
}
