package chat

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 客户端上行事件
const (
	EventSendMessage        = "send_message"
	EventSendPrivateMessage = "send_private_message"
	EventStartPrivateChat   = "start_private_chat"
	EventMarkAsRead         = "mark_as_read"
	EventGetUserProfile     = "get_user_profile"
	EventTypingStart        = "typing_start"
	EventTypingStop         = "typing_stop"
)

// 服务端下行事件
const (
	EventPreviousMessages       = "previous_messages"
	EventNewMessage             = "new_message"
	EventNewPrivateMessage      = "new_private_message"
	EventPrivateMessagesHistory = "private_messages_history"
	EventPrivateChatOpened      = "private_chat_opened"
	EventUsersUpdate            = "users_update"
	EventUserJoined             = "user_joined"
	EventUserLeft               = "user_left"
	EventUserTyping             = "user_typing"
	EventUserProfile            = "user_profile"
	EventUnreadUpdate           = "unread_update"
	EventUnreadCleared          = "unread_cleared"
	EventError                  = "error"
)

// InboundFrame 上行帧,data 延迟解析,具体结构由 event 决定
type InboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutboundFrame 下行帧
type OutboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// encodeFrame 组装下行帧并序列化,失败返回 nil,调用方需要判空
func encodeFrame(event string, data any) []byte {
	frame := OutboundFrame{
		Event: event,
		Data:  data,
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		zap.L().Error("下行帧序列化失败", zap.String("event", event), zap.Error(err))
		return nil
	}
	return payload
}
