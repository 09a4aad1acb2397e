package router

import (
	"vesper_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterUserRoutes 注册账号与用户资料相关路由
func (rt *Router) RegisterUserRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// 公开接口 (无需认证)
	api.POST("/register", rt.handlers.User.Register)
	api.POST("/login", rt.handlers.User.Login)
	api.POST("/verify-token", rt.handlers.User.VerifyToken)
	api.GET("/info", rt.handlers.User.ServerInfo)

	// 需要认证的接口
	authed := api.Group("")
	authed.Use(middleware.JWTAuth())
	{
		authed.GET("/users", rt.handlers.User.ListUsers)
		authed.GET("/user/:id", rt.handlers.User.GetProfile)
	}
}
