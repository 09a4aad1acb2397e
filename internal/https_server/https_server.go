// Package https_server 提供 HTTP/HTTPS 服务器的初始化和配置
// 负责创建 Gin 引擎实例并配置中间件、静态资源和路由
package https_server

import (
	"vesper_chat_server/internal/config"
	"vesper_chat_server/internal/handler"
	"vesper_chat_server/internal/infrastructure/logger"
	"vesper_chat_server/internal/router"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Init 初始化 HTTP 服务器并返回 Gin 引擎实例
// 使用 gin.New() 而不是 gin.Default(),日志和恢复中间件换成 zap 版本
func Init(handlers *handler.Handlers) *gin.Engine {
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	// CORS,前端独立部署时需要
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// TLS 重定向(由 Nginx 终结 SSL 时保持注释)
	// engine.Use(middleware.TlsHandler(config.GetConfig().MainConfig.Host, config.GetConfig().MainConfig.Port))

	// 前端静态页面
	if staticPath := config.GetConfig().StaticSrcConfig.StaticPath; staticPath != "" {
		engine.Static("/static", staticPath)
		engine.StaticFile("/", staticPath+"/index.html")
	}

	rt := router.NewRouter(handlers)
	rt.RegisterRoutes(engine)

	return engine
}
