package request

// RegisterRequest 注册请求
// 密码可选；提供时最短 6 位
type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Avatar   string `json:"avatar" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=6"`
}
