package chat

import (
	"encoding/json"
	"time"

	"vesper_chat_server/internal/config"
	"vesper_chat_server/internal/dao"
	"vesper_chat_server/internal/dto/request"
	"vesper_chat_server/internal/dto/respond"
	"vesper_chat_server/internal/model"
	"vesper_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// MessageArchiver 已落库消息的归档出口,实现方自行处理失败,不反向影响投递
type MessageArchiver interface {
	Archive(message *model.Message)
}

type inboundEvent struct {
	conn  *UserConn
	frame InboundFrame
}

// Hub 会话中枢,注册表/在线名单/输入状态的全部变更都在 Start 这一个 goroutine 里完成,
// 事件处理天然串行,读路径通过注册表的读锁拿一致快照
type Hub struct {
	Registry *SessionRegistry
	Presence *PresenceTracker
	Router   *RoomRouter
	History  *HistoryStore
	Typing   *TypingCoordinator

	users    dao.UserRepository
	archiver MessageArchiver

	historyLimit int
	channelSize  int

	Login  chan *UserConn
	Logout chan *UserConn
	events chan *inboundEvent
	done   chan struct{}
}

// NewHub 组装会话中枢,archiver 传 nil 表示不归档
func NewHub(repos *dao.Repositories, archiver MessageArchiver) *Hub {
	conf := config.GetConfig()
	registry := NewSessionRegistry()
	history := NewHistoryStore(repos.Message)
	hub := &Hub{
		Registry:     registry,
		Presence:     NewPresenceTracker(registry),
		Router:       NewRoomRouter(repos.User, history),
		History:      history,
		Typing:       NewTypingCoordinator(),
		users:        repos.User,
		archiver:     archiver,
		historyLimit: conf.ChatConfig.HistoryLimit,
		channelSize:  conf.ChatConfig.ChannelSize,
		Login:        make(chan *UserConn, conf.ChatConfig.ChannelSize),
		Logout:       make(chan *UserConn, conf.ChatConfig.ChannelSize),
		events:       make(chan *inboundEvent, conf.ChatConfig.ChannelSize),
		done:         make(chan struct{}),
	}
	return hub
}

// Start 事件循环,进程内只跑一个
func (h *Hub) Start() {
	zap.L().Info("聊天中枢启动")
	for {
		select {
		case conn := <-h.Login:
			h.handleLogin(conn)
		case conn := <-h.Logout:
			h.handleLogout(conn)
		case ev := <-h.events:
			h.handleEvent(ev.conn, ev.frame)
		case <-h.done:
			zap.L().Info("聊天中枢退出")
			return
		}
	}
}

// Close 停止事件循环
func (h *Hub) Close() {
	close(h.done)
}

// Dispatch 读泵把上行帧投进事件循环,帧格式非法直接回错,不进循环
func (h *Hub) Dispatch(conn *UserConn, payload []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(payload, &frame); err != nil || frame.Event == "" {
		conn.SendError("无效的消息格式")
		return
	}
	select {
	case h.events <- &inboundEvent{conn: conn, frame: frame}:
	case <-h.done:
	}
}

// handleLogin 连接上线:登记,回放历史,刷新在线名单,广播加入通知
func (h *Hub) handleLogin(conn *UserConn) {
	if conn.gone {
		// 读泵已经退出,对应的登出事件先一步被处理,不能再登记
		conn.Close()
		return
	}
	if err := h.Registry.Register(conn); err != nil {
		zap.L().Warn("连接登记失败", zap.String("conn_id", conn.ConnID), zap.Error(err))
		conn.SendError("连接登记失败")
		conn.Close()
		return
	}
	if err := h.users.UpdateOnlineStatus(conn.UserID, true); err != nil {
		zap.L().Error("更新在线状态失败", zap.Int64("user_id", conn.UserID), zap.Error(err))
	}

	if cached, cerr := cachedGlobalHistory(); cerr == nil {
		conn.Send(EventPreviousMessages, cached)
	} else {
		// 版本在回源前捕获,期间有新消息进来时写缓存任务会放弃写入
		gen := globalCacheVersion()
		if messages, err := h.History.TailGlobal(h.historyLimit); err != nil {
			zap.L().Error("历史回放查询失败", zap.Error(err))
			conn.SendError("获取历史消息失败")
		} else {
			replay := h.globalRespondList(messages)
			storeGlobalHistory(gen, replay)
			conn.Send(EventPreviousMessages, replay)
		}
	}

	h.Registry.Broadcast(encodeFrame(EventUsersUpdate, h.Presence.Snapshot()))
	h.Registry.BroadcastExcept(conn.ConnID, encodeFrame(EventUserJoined, respond.PresenceEventRespond{
		Username:  conn.Username,
		Timestamp: time.Now(),
	}))
	zap.L().Info("用户连接上线",
		zap.Int64("user_id", conn.UserID),
		zap.String("username", conn.Username),
		zap.String("conn_id", conn.ConnID))
}

// handleLogout 连接下线,最后一条连接断开时该用户才算离线
func (h *Hub) handleLogout(conn *UserConn) {
	if h.Registry.Unregister(conn.ConnID) == nil {
		// 登记失败或登录事件还没处理的连接也会走到这里,置位后 handleLogin 拒绝登记
		conn.gone = true
		return
	}
	conn.Close()

	// 输入中的连接断开就补发停止通知,不等该用户的全部连接下线
	if h.Typing.Stop(conn.ConnID) {
		h.Registry.Broadcast(encodeFrame(EventUserTyping, respond.TypingRespond{
			Username: conn.Username,
			IsTyping: false,
		}))
	}

	lastSession := !h.Registry.IsOnline(conn.UserID)
	if lastSession {
		if err := h.users.UpdateOnlineStatus(conn.UserID, false); err != nil {
			zap.L().Error("更新离线状态失败", zap.Int64("user_id", conn.UserID), zap.Error(err))
		}
	}

	h.Registry.Broadcast(encodeFrame(EventUsersUpdate, h.Presence.Snapshot()))
	if lastSession {
		h.Registry.Broadcast(encodeFrame(EventUserLeft, respond.PresenceEventRespond{
			Username:  conn.Username,
			Timestamp: time.Now(),
		}))
	}
	zap.L().Info("用户连接下线",
		zap.Int64("user_id", conn.UserID),
		zap.String("username", conn.Username),
		zap.Bool("last_session", lastSession))
}

func (h *Hub) handleEvent(conn *UserConn, frame InboundFrame) {
	switch frame.Event {
	case EventSendMessage:
		h.handleSendMessage(conn, frame.Data)
	case EventSendPrivateMessage:
		h.handleSendPrivateMessage(conn, frame.Data)
	case EventStartPrivateChat:
		h.handleStartPrivateChat(conn, frame.Data)
	case EventMarkAsRead:
		h.handleMarkAsRead(conn, frame.Data)
	case EventGetUserProfile:
		h.handleGetUserProfile(conn, frame.Data)
	case EventTypingStart:
		h.handleTyping(conn, true)
	case EventTypingStop:
		h.handleTyping(conn, false)
	default:
		conn.SendError("未知的事件类型")
	}
}

// handleSendMessage 公共房间消息,落库成功后广播给全部连接,发送者也收到
func (h *Hub) handleSendMessage(conn *UserConn, data json.RawMessage) {
	var req request.SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Text == "" {
		conn.SendError("消息内容不能为空")
		return
	}
	message, err := h.Router.RouteGlobal(conn.UserID, req.Text, req.IsSticker)
	if err != nil {
		zap.L().Error("公共消息落库失败", zap.Int64("sender", conn.UserID), zap.Error(err))
		conn.SendError("消息发送失败")
		return
	}
	h.Registry.Broadcast(encodeFrame(EventNewMessage, h.globalRespond(message, conn.Username, conn.Avatar)))
	h.archive(message)
	h.invalidateGlobalCache()
}

// handleSendPrivateMessage 私聊消息,发给双方的全部连接,再给目标推未读数
func (h *Hub) handleSendPrivateMessage(conn *UserConn, data json.RawMessage) {
	var req request.SendPrivateMessageRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Text == "" || req.TargetUserID == 0 {
		conn.SendError("消息内容不能为空")
		return
	}
	target, err := h.users.FindByID(req.TargetUserID)
	if err != nil {
		conn.SendError("用户不存在")
		return
	}
	message, err := h.Router.RoutePrivate(conn.UserID, req.TargetUserID, req.Text, req.IsSticker)
	if err != nil {
		zap.L().Error("私聊消息落库失败", zap.Int64("sender", conn.UserID), zap.Error(err))
		conn.SendError("消息发送失败")
		return
	}

	rsp := respond.PrivateMessageRespond{
		ID:        message.ID,
		From:      respond.UserSummary{ID: conn.UserID, Username: conn.Username, Avatar: conn.Avatar},
		To:        respond.UserSummary{ID: target.ID, Username: target.Username, Avatar: target.Avatar},
		Text:      message.Text,
		Timestamp: message.CreatedAt,
		IsSticker: message.IsSticker,
		Read:      false,
	}
	payload := encodeFrame(EventNewPrivateMessage, rsp)
	h.Registry.SendToUser(target.ID, payload)
	if target.ID != conn.UserID {
		h.Registry.SendToUser(conn.UserID, payload)
	}

	unread, err := h.History.UnreadCount(target.ID)
	if err != nil {
		zap.L().Error("未读数查询失败", zap.Int64("receiver", target.ID), zap.Error(err))
	} else {
		h.Registry.SendToUser(target.ID, encodeFrame(EventUnreadUpdate, respond.UnreadUpdateRespond{
			UserID: conn.UserID,
			Count:  unread,
		}))
	}

	h.archive(message)
	h.appendPrivateCache(message.SenderID, message.ReceiverID, rsp)
}

// handleStartPrivateChat 打开私聊:回放双方历史给请求方,目标在线时另发打开通知
func (h *Hub) handleStartPrivateChat(conn *UserConn, data json.RawMessage) {
	var req request.TargetUserRequest
	if err := json.Unmarshal(data, &req); err != nil || req.TargetUserID == 0 {
		conn.SendError("无效的目标用户")
		return
	}
	// 先走缓存,缓存里是组装好的下行负载,方向无关
	if cached, cerr := cachedPrivateHistory(conn.UserID, req.TargetUserID); cerr == nil {
		if target, terr := h.users.FindByID(req.TargetUserID); terr == nil {
			conn.Send(EventPrivateMessagesHistory, respond.PrivateHistoryRespond{
				TargetUser: respond.UserSummary{ID: target.ID, Username: target.Username, Avatar: target.Avatar},
				Messages:   cached,
			})
			h.Registry.SendToUser(target.ID, encodeFrame(EventPrivateChatOpened, respond.PrivateChatOpenedRespond{
				UserID:   conn.UserID,
				Username: conn.Username,
			}))
			return
		}
	}

	target, messages, err := h.Router.OpenPrivateChat(conn.UserID, req.TargetUserID, h.historyLimit)
	if err != nil {
		if errorx.IsNotFound(err) {
			conn.SendError("用户不存在")
		} else {
			zap.L().Error("私聊历史查询失败", zap.Error(err))
			conn.SendError("获取聊天记录失败")
		}
		return
	}

	history := h.privateHistory(conn, target, messages)
	storePrivateHistory(conn.UserID, req.TargetUserID, history)
	conn.Send(EventPrivateMessagesHistory, respond.PrivateHistoryRespond{
		TargetUser: respond.UserSummary{ID: target.ID, Username: target.Username, Avatar: target.Avatar},
		Messages:   history,
	})
	h.Registry.SendToUser(target.ID, encodeFrame(EventPrivateChatOpened, respond.PrivateChatOpenedRespond{
		UserID:   conn.UserID,
		Username: conn.Username,
	}))
}

// handleMarkAsRead 标记已读,只有确实改动了未读消息才通知对端
func (h *Hub) handleMarkAsRead(conn *UserConn, data json.RawMessage) {
	var req request.TargetUserRequest
	if err := json.Unmarshal(data, &req); err != nil || req.TargetUserID == 0 {
		conn.SendError("无效的目标用户")
		return
	}
	affected, err := h.Router.MarkRead(conn.UserID, req.TargetUserID)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeUserNotExist || errorx.IsNotFound(err) {
			conn.SendError("用户不存在")
		} else {
			zap.L().Error("标记已读失败", zap.Error(err))
			conn.SendError("标记已读失败")
		}
		return
	}
	if affected > 0 {
		h.Registry.SendToUser(req.TargetUserID, encodeFrame(EventUnreadCleared, respond.UnreadClearedRespond{
			UserID: conn.UserID,
		}))
		h.invalidatePrivateCache(conn.UserID, req.TargetUserID)
	}
}

// handleGetUserProfile 查询用户资料,在线状态以注册表为准
func (h *Hub) handleGetUserProfile(conn *UserConn, data json.RawMessage) {
	var req request.TargetUserRequest
	if err := json.Unmarshal(data, &req); err != nil || req.TargetUserID == 0 {
		conn.SendError("无效的目标用户")
		return
	}
	user, err := h.users.FindByID(req.TargetUserID)
	if err != nil {
		conn.SendError("用户不存在")
		return
	}
	conn.Send(EventUserProfile, respond.UserProfileRespond{
		ID:       user.ID,
		Username: user.Username,
		Avatar:   user.Avatar,
		Online:   h.Registry.IsOnline(user.ID),
		JoinedAt: user.CreatedAt,
		LastSeen: user.LastSeenAt,
	})
}

// handleTyping 输入状态广播给除本人以外的所有连接,不落库不确认
func (h *Hub) handleTyping(conn *UserConn, isTyping bool) {
	if isTyping {
		h.Typing.Start(conn.ConnID, conn.Username)
	} else {
		h.Typing.Stop(conn.ConnID)
	}
	h.Registry.BroadcastExcept(conn.ConnID, encodeFrame(EventUserTyping, respond.TypingRespond{
		Username: conn.Username,
		IsTyping: isTyping,
	}))
}

// globalRespond 组装单条全局消息的下行负载
func (h *Hub) globalRespond(message *model.Message, username, avatar string) respond.GlobalMessageRespond {
	return respond.GlobalMessageRespond{
		ID:        message.ID,
		Username:  username,
		Avatar:    avatar,
		Text:      message.Text,
		Timestamp: message.CreatedAt,
		UserID:    message.SenderID,
		IsSticker: message.IsSticker,
	}
}

// globalRespondList 批量组装全局消息,同一发送者只查一次用户表
func (h *Hub) globalRespondList(messages []model.Message) []respond.GlobalMessageRespond {
	type identity struct {
		username string
		avatar   string
	}
	cache := make(map[int64]identity)
	list := make([]respond.GlobalMessageRespond, 0, len(messages))
	for i := range messages {
		message := &messages[i]
		id, ok := cache[message.SenderID]
		if !ok {
			if user, err := h.users.FindByID(message.SenderID); err == nil {
				id = identity{username: user.Username, avatar: user.Avatar}
			} else {
				// 发送者账号已不可查时仍保留消息本身
				id = identity{username: "未知用户", avatar: model.DefaultAvatar}
			}
			cache[message.SenderID] = id
		}
		list = append(list, h.globalRespond(message, id.username, id.avatar))
	}
	return list
}

// privateHistory 组装私聊历史负载,消息方向由 sender 判定
func (h *Hub) privateHistory(conn *UserConn, target *model.UserInfo, messages []model.Message) []respond.PrivateMessageRespond {
	self := respond.UserSummary{ID: conn.UserID, Username: conn.Username, Avatar: conn.Avatar}
	other := respond.UserSummary{ID: target.ID, Username: target.Username, Avatar: target.Avatar}
	list := make([]respond.PrivateMessageRespond, 0, len(messages))
	for i := range messages {
		message := &messages[i]
		from, to := self, other
		if message.SenderID == target.ID {
			from, to = other, self
		}
		list = append(list, respond.PrivateMessageRespond{
			ID:        message.ID,
			From:      from,
			To:        to,
			Text:      message.Text,
			Timestamp: message.CreatedAt,
			IsSticker: message.IsSticker,
			Read:      message.ReadStatus,
		})
	}
	return list
}

// archive 已落库消息送归档,归档失败不影响聊天主流程
func (h *Hub) archive(message *model.Message) {
	if h.archiver == nil {
		return
	}
	h.archiver.Archive(message)
}
