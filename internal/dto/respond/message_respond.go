package respond

import "time"

// GlobalMessageRespond new_message / previous_messages 中的全局消息
// 冗余携带发送者用户名和头像，前端渲染不需要再查用户
type GlobalMessageRespond struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"userId"`
	IsSticker bool      `json:"isSticker"`
}

// PrivateMessageRespond new_private_message / private_messages_history 中的私聊消息
type PrivateMessageRespond struct {
	ID        int64       `json:"id"`
	From      UserSummary `json:"from"`
	To        UserSummary `json:"to"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
	IsSticker bool        `json:"isSticker"`
	Read      bool        `json:"read"`
}

// PrivateHistoryRespond private_messages_history 负载
// Messages 按消息 ID 升序（最旧在前），最多 historyLimit 条
type PrivateHistoryRespond struct {
	TargetUser UserSummary             `json:"targetUser"`
	Messages   []PrivateMessageRespond `json:"messages"`
}
