package request

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// VerifyTokenRequest Token 校验请求
type VerifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
