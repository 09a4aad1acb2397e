package respond

import "time"

// 出站点事件负载

// PresenceEventRespond user_joined / user_left 负载
type PresenceEventRespond struct {
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// TypingRespond user_typing 负载
type TypingRespond struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// PrivateChatOpenedRespond private_chat_opened 负载，发给被打开方
type PrivateChatOpenedRespond struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// UnreadUpdateRespond unread_update 负载
// UserID 是产生未读消息的发送者，Count 是接收者的未读总数
type UnreadUpdateRespond struct {
	UserID int64 `json:"userId"`
	Count  int64 `json:"count"`
}

// UnreadClearedRespond unread_cleared 负载，发给此前的发送者
type UnreadClearedRespond struct {
	UserID int64 `json:"userId"`
}

// ErrorRespond error 事件负载，只发给出错的连接本身
type ErrorRespond struct {
	Message string `json:"message"`
}
