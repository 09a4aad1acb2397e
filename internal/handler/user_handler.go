// Package handler 提供 HTTP 请求处理器
// 本文件处理账号和用户资料相关的 API 请求
package handler

import (
	"strconv"

	"vesper_chat_server/internal/dto/request"
	"vesper_chat_server/internal/service/user"
	"vesper_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户相关请求处理器
type UserHandler struct {
	userService *user.Service
}

func NewUserHandler(userService *user.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register 注册
// POST /api/register
func (h *UserHandler) Register(c *gin.Context) {
	var req request.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.userService.Register(&req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// Login 登录
// POST /api/login
func (h *UserHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.userService.Login(&req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// VerifyToken 校验 token 是否有效
// POST /api/verify-token
func (h *UserHandler) VerifyToken(c *gin.Context) {
	var req request.VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.userService.VerifyToken(req.Token)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// ServerInfo 服务器状态
// GET /api/info
func (h *UserHandler) ServerInfo(c *gin.Context) {
	rsp, err := h.userService.ServerInfo()
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// ListUsers 全部注册用户
// GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	rsp, err := h.userService.ListUsers()
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// GetProfile 单个用户资料
// GET /api/user/:id
func (h *UserHandler) GetProfile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "无效的用户 ID"))
		return
	}
	rsp, err := h.userService.GetProfile(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}
