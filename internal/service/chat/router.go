package chat

import (
	"vesper_chat_server/internal/dao"
	"vesper_chat_server/internal/model"
	"vesper_chat_server/pkg/errorx"
)

// RoomRouter 决定一条消息属于哪个房间以及能不能发,投递由 hub 负责
type RoomRouter struct {
	users   dao.UserRepository
	history *HistoryStore
}

func NewRoomRouter(users dao.UserRepository, history *HistoryStore) *RoomRouter {
	return &RoomRouter{users: users, history: history}
}

// RouteGlobal 公共房间消息,落库成功后才能广播
func (rt *RoomRouter) RouteGlobal(senderID int64, text string, isSticker bool) (*model.Message, error) {
	message := &model.Message{
		RoomType:  model.RoomGlobal,
		SenderID:  senderID,
		Text:      text,
		IsSticker: isSticker,
	}
	if _, err := rt.history.Append(message); err != nil {
		return nil, err
	}
	return message, nil
}

// RoutePrivate 私聊消息,收件人必须是已注册用户,给不存在的用户发消息不落库
func (rt *RoomRouter) RoutePrivate(senderID, receiverID int64, text string, isSticker bool) (*model.Message, error) {
	if _, err := rt.users.FindByID(receiverID); err != nil {
		return nil, err
	}
	message := &model.Message{
		RoomType:   model.RoomPrivate,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		IsSticker:  isSticker,
	}
	if _, err := rt.history.Append(message); err != nil {
		return nil, err
	}
	return message, nil
}

// OpenPrivateChat 校验目标用户并取出双方最近的聊天记录
func (rt *RoomRouter) OpenPrivateChat(requesterID, targetID int64, limit int) (*model.UserInfo, []model.Message, error) {
	target, err := rt.users.FindByID(targetID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := rt.history.TailPrivate(requesterID, targetID, limit)
	if err != nil {
		return nil, nil, err
	}
	return target, messages, nil
}

// MarkRead 读者把某个对端发来的消息全部置为已读,返回实际改动条数,重复调用改动为零
func (rt *RoomRouter) MarkRead(readerID, counterpartID int64) (int64, error) {
	if _, err := rt.users.FindByID(counterpartID); err != nil {
		if errorx.IsNotFound(err) {
			return 0, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		return 0, err
	}
	return rt.history.MarkRead(counterpartID, readerID)
}
