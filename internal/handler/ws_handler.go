// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 接入
package handler

import (
	"net/http"

	"vesper_chat_server/internal/service/chat"
	"vesper_chat_server/internal/service/user"
	"vesper_chat_server/pkg/errorx"
	"vesper_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WsHandler WebSocket 接入处理器
type WsHandler struct {
	hub         *chat.Hub
	userService *user.Service
}

func NewWsHandler(hub *chat.Hub, userService *user.Service) *WsHandler {
	return &WsHandler{hub: hub, userService: userService}
}

// Connect 建立聊天连接
// GET /ws?token=xxx
// token 校验在升级之前完成,校验失败返回 401,不会产生任何会话状态
func (h *WsHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		// 浏览器 WebSocket API 不能自定义 Header,兼容 Authorization 方式接入
		token = c.GetHeader("Authorization")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code": errorx.CodeUnauthorized,
			"msg":  "缺少 token",
		})
		return
	}

	claims, err := jwt.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code": errorx.CodeUnauthorized,
			"msg":  "token 无效或已过期",
		})
		return
	}

	userInfo, err := h.userService.GetUserByID(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code": errorx.CodeUnauthorized,
			"msg":  "用户不存在",
		})
		return
	}

	if err := chat.NewClientInit(c, h.hub, userInfo); err != nil {
		zap.L().Error("websocket 接入失败", zap.Int64("user_id", userInfo.ID), zap.Error(err))
	}
}
