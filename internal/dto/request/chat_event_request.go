package request

// WebSocket 入站事件的 data 负载
// 入站帧统一为 {"event": "...", "data": {...}}，这里定义各事件的 data 形状

// SendMessageRequest send_message 负载：发到全局房间
type SendMessageRequest struct {
	Text      string `json:"text"`
	IsSticker bool   `json:"isSticker"`
}

// SendPrivateMessageRequest send_private_message 负载：发到私聊房间
type SendPrivateMessageRequest struct {
	TargetUserID int64  `json:"targetUserId"`
	Text         string `json:"text"`
	IsSticker    bool   `json:"isSticker"`
}

// TargetUserRequest 仅携带目标用户的事件负载
// start_private_chat / mark_as_read / get_user_profile 共用
type TargetUserRequest struct {
	TargetUserID int64 `json:"targetUserId"`
}
