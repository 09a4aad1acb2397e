package respond

// UserSummary 用户摘要，注册/登录/私聊历史中复用
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// AuthRespond 注册/登录/Token 校验的统一响应
// 校验 Token 时不重新签发，Token 字段为空
type AuthRespond struct {
	Success bool        `json:"success"`
	Token   string      `json:"token,omitempty"`
	User    UserSummary `json:"user"`
}
