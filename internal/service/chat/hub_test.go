package chat

import (
	"encoding/json"
	"testing"

	"vesper_chat_server/internal/dao"
	"vesper_chat_server/internal/dao/memory"
	"vesper_chat_server/internal/dto/respond"
	"vesper_chat_server/internal/model"
)

// newTestHub 内存存储上的 hub,事件循环不启动,测试里直接调处理函数
func newTestHub(t *testing.T) (*Hub, *dao.Repositories) {
	t.Helper()
	repos := memory.Init(1000)
	return NewHub(repos, nil), repos
}

func mustCreateUser(t *testing.T, repos *dao.Repositories, username string) *model.UserInfo {
	t.Helper()
	user := &model.UserInfo{Username: username}
	if err := repos.User.Create(user); err != nil {
		t.Fatal(err)
	}
	return user
}

func loginConn(t *testing.T, hub *Hub, connID string, user *model.UserInfo) *UserConn {
	t.Helper()
	conn := testConn(connID, user.ID, user.Username)
	conn.Avatar = user.Avatar
	conn.JoinedAt = user.CreatedAt
	hub.handleLogin(conn)
	return conn
}

// nextFrame 取连接收到的下一帧,没有则失败
func nextFrame(t *testing.T, conn *UserConn) OutboundFrame {
	t.Helper()
	select {
	case payload := <-conn.SendBack:
		var frame OutboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			t.Fatal(err)
		}
		return frame
	default:
		t.Fatal("expected a frame, got none")
		return OutboundFrame{}
	}
}

// collectEvents 清空连接缓冲,返回事件名序列
func collectEvents(t *testing.T, conn *UserConn) []string {
	t.Helper()
	var events []string
	for {
		select {
		case payload := <-conn.SendBack:
			var frame OutboundFrame
			if err := json.Unmarshal(payload, &frame); err != nil {
				t.Fatal(err)
			}
			events = append(events, frame.Event)
		default:
			return events
		}
	}
}

func drain(conn *UserConn) {
	for {
		select {
		case <-conn.SendBack:
		default:
			return
		}
	}
}

func rawData(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestLoginReplaysHistoryAndAnnounces(t *testing.T) {
	hub, repos := newTestHub(t)
	alice := mustCreateUser(t, repos, "alice")
	bob := mustCreateUser(t, repos, "bob")

	aliceConn := loginConn(t, hub, "c1", alice)
	events := collectEvents(t, aliceConn)
	// 第一个连接:历史回放 + 在线名单,没人给它发 user_joined
	if len(events) != 2 || events[0] != EventPreviousMessages || events[1] != EventUsersUpdate {
		t.Fatalf("unexpected login events: %v", events)
	}

	bobConn := loginConn(t, hub, "c2", bob)
	bobEvents := collectEvents(t, bobConn)
	if len(bobEvents) != 2 {
		t.Fatalf("joining user must not see its own user_joined: %v", bobEvents)
	}

	aliceEvents := collectEvents(t, aliceConn)
	if len(aliceEvents) != 2 || aliceEvents[0] != EventUsersUpdate || aliceEvents[1] != EventUserJoined {
		t.Fatalf("existing user must see users_update then user_joined: %v", aliceEvents)
	}
}

func TestGlobalMessageReachesEveryConnection(t *testing.T) {
	hub, repos := newTestHub(t)
	alice := mustCreateUser(t, repos, "alice")
	bob := mustCreateUser(t, repos, "bob")

	aliceConn := loginConn(t, hub, "c1", alice)
	bobConn := loginConn(t, hub, "c2", bob)
	drain(aliceConn)
	drain(bobConn)

	hub.handleSendMessage(aliceConn, rawData(t, map[string]any{"text": "hi"}))

	for _, conn := range []*UserConn{aliceConn, bobConn} {
		frame := nextFrame(t, conn)
		if frame.Event != EventNewMessage {
			t.Fatalf("expected new_message, got %s", frame.Event)
		}
		var msg respond.GlobalMessageRespond
		if err := json.Unmarshal(mustMarshal(t, frame.Data), &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Username != "alice" || msg.Text != "hi" {
			t.Fatalf("unexpected payload: %+v", msg)
		}
	}

	// 落库
	messages, err := hub.History.TailGlobal(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 1 || messages[0].Text != "hi" {
		t.Fatalf("expected persisted message, got %+v", messages)
	}
}

func TestEmptyMessageRejectedWithoutPersisting(t *testing.T) {
	hub, repos := newTestHub(t)
	alice := mustCreateUser(t, repos, "alice")
	aliceConn := loginConn(t, hub, "c1", alice)
	drain(aliceConn)

	hub.handleSendMessage(aliceConn, rawData(t, map[string]any{"text": ""}))

	frame := nextFrame(t, aliceConn)
	if frame.Event != EventError {
		t.Fatalf("expected error event, got %s", frame.Event)
	}
	messages, _ := hub.History.TailGlobal(10)
	if len(messages) != 0 {
		t.Fatal("rejected message must not be persisted")
	}
}

func TestPrivateMessageDeliveredToBothParties(t *testing.T) {
	hub, repos := newTestHub(t)
	alice := mustCreateUser(t, repos, "alice")
	bob := mustCreateUser(t, repos, "bob")

	aliceConn := loginConn(t, hub, "c1", alice)
	// bob 两个设备同时在线
	bobConn1 := loginConn(t, hub, "c2", bob)
	bobConn2 := loginConn(t, hub, "c3", bob)
	for _, conn := range []*UserConn{aliceConn, bobConn1, bobConn2} {
		drain(conn)
	}

	hub.handleSendPrivateMessage(aliceConn, rawData(t, map[string]any{
		"targetUserId": bob.ID,
		"text":         "hey",
	}))

	// 发送者收到回显
	senderFrame := nextFrame(t, aliceConn)
	if senderFrame.Event != EventNewPrivateMessage {
		t.Fatalf("sender expected new_private_message, got %s", senderFrame.Event)
	}

	// 目标的每个设备都收到消息和未读数
	for _, conn := range []*UserConn{bobConn1, bobConn2} {
		events := collectEvents(t, conn)
		if len(events) != 2 || events[0] != EventNewPrivateMessage || events[1] != EventUnreadUpdate {
			t.Fatalf("target session expected message+unread, got %v", events)
		}
	}

	unread, err := hub.History.UnreadCount(bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if unread != 1 {
		t.Fatalf("expected 1 unread, got %d", unread)
	}
}

func TestPrivateMessageToUnknownUserFails(t *testing.T) {
	hub, repos := newTestHub(t)
	alice := mustCreateUser(t, repos, "alice")
	aliceConn := loginConn(t, hub, "c1", alice)
	drain(aliceConn)

	hub.handleSendPrivateMessage(aliceConn, rawData(t, map[string]any{
		"targetUserId": int64(999),
		"text":         "hello?",
	}))

	frame := nextFrame(t, aliceConn)
	if frame.Event != EventError {
		t.Fatalf("expected error event, got %s", frame.Event)
	}

	messages, _ := hub.History.TailPrivate(alice.ID, 999, 10)
	if len(messages) != 0 {
		t.Fatal("message to unknown user must not be persisted")
	}
}

func TestStartPrivateChatReturnsHistoryAndNotifiesTarget(t *testing.T) {
	hub, repos := newTestHub(t)
	alice := mustCreateUser(t, repos, "alice")
	bob := mustCreateUser(t, repos, "bob")

	aliceConn := loginConn(t, hub, "c1", alice)
	bobConn := loginConn(t, hub, "c2", bob)
	drain(aliceConn)
	drain(bobConn)

	// 空历史
	hub.handleStartPrivateChat(bobConn, rawData(t, map[string]any{"targetUserId": alice.ID}))
	frame := nextFrame(t, bobConn)
	if frame.Event != EventPrivateMessagesHistory {
		t.Fatalf("expected private_messages_history, got %s", frame.Event)
	}
	var history respond.PrivateHistoryRespond
	if err := json.Unmarshal(mustMarshal(t, frame.Data), &history); err != nil {
		t.Fatal(err)
	}
	if history.TargetUser.Username != "alice" || len(history.Messages) != 0 {
		t.Fatalf("unexpected history payload: %+v", history)
	}

	// 对端在线,收到打开通知
	opened := nextFrame(t, aliceConn)
	if opened.Event != EventPrivateChatOpened {
		t.Fatalf("expected private_chat_opened, got %s", opened.Event)
	}
}

func TestMarkAsReadNotifiesOnlyOnChange(t *testing.T) {
	hub, repos := newTestHub(t)
	alice := mustCreateUser(t, repos, "alice")
	bob := mustCreateUser(t, repos, "bob")

	aliceConn := loginConn(t, hub, "c1", alice)
	bobConn := loginConn(t, hub, "c2", bob)
	drain(aliceConn)
	drain(bobConn)

	hub.handleSendPrivateMessage(bobConn, rawData(t, map[string]any{
		"targetUserId": alice.ID,
		"text":         "unread",
	}))
	drain(aliceConn)
	drain(bobConn)

	// 第一次标记:bob 收到 unread_cleared
	hub.handleMarkAsRead(aliceConn, rawData(t, map[string]any{"targetUserId": bob.ID}))
	frame := nextFrame(t, bobConn)
	if frame.Event != EventUnreadCleared {
		t.Fatalf("expected unread_cleared, got %s", frame.Event)
	}

	// 重复标记:没有改动,不再通知
	hub.handleMarkAsRead(aliceConn, rawData(t, map[string]any{"targetUserId": bob.ID}))
	if events := collectEvents(t, bobConn); len(events) != 0 {
		t.Fatalf("repeated mark_as_read must not notify, got %v", events)
	}
}

func TestLogoutEmitsSingleUserLeftOnLastSession(t *testing.T) {
	hub, repos := newTestHub(t)
	alice := mustCreateUser(t, repos, "alice")
	bob := mustCreateUser(t, repos, "bob")

	aliceConn1 := loginConn(t, hub, "c1", alice)
	aliceConn2 := loginConn(t, hub, "c2", alice)
	bobConn := loginConn(t, hub, "c3", bob)
	drain(aliceConn1)
	drain(aliceConn2)
	drain(bobConn)

	// 第一条连接断开:还有会话,只有名单刷新
	hub.handleLogout(aliceConn1)
	events := collectEvents(t, bobConn)
	if len(events) != 1 || events[0] != EventUsersUpdate {
		t.Fatalf("expected only users_update while sessions remain, got %v", events)
	}
	if !hub.Registry.IsOnline(alice.ID) {
		t.Fatal("user must stay online while a session remains")
	}

	// 最后一条连接断开:名单刷新 + 恰好一次 user_left
	hub.handleLogout(aliceConn2)
	events = collectEvents(t, bobConn)
	var leftCount int
	for _, ev := range events {
		if ev == EventUserLeft {
			leftCount++
		}
	}
	if leftCount != 1 {
		t.Fatalf("expected exactly one user_left, got %d in %v", leftCount, events)
	}
	if hub.Registry.IsOnline(alice.ID) {
		t.Fatal("user must be offline after last session")
	}

	// 重复登出是幂等的
	hub.handleLogout(aliceConn2)
	if events := collectEvents(t, bobConn); len(events) != 0 {
		t.Fatalf("repeated logout must not emit events, got %v", events)
	}
}

func TestLogoutBeforeLoginLeavesNoSession(t *testing.T) {
	hub, repos := newTestHub(t)
	alice := mustCreateUser(t, repos, "alice")

	// 连接刚建立就死掉,读泵的登出事件抢在登录事件之前被处理
	conn := testConn("c1", alice.ID, alice.Username)
	hub.handleLogout(conn)
	hub.handleLogin(conn)

	if hub.Registry.IsOnline(alice.ID) {
		t.Fatal("user must not be reported online without a live connection")
	}
	if count := hub.Registry.SessionCount(alice.ID); count != 0 {
		t.Fatalf("dead connection must not leave a session, got %d", count)
	}
	stored, err := repos.User.FindByID(alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.IsOnline {
		t.Fatal("stored online flag must stay false")
	}

	// 正常顺序不受影响
	aliceConn := loginConn(t, hub, "c2", alice)
	if !hub.Registry.IsOnline(alice.ID) {
		t.Fatal("normal login must still register the session")
	}
	hub.handleLogout(aliceConn)
	if hub.Registry.IsOnline(alice.ID) {
		t.Fatal("user must be offline after the session closes")
	}
}

func TestTypingDeviceDisconnectWithSecondSessionOnline(t *testing.T) {
	hub, repos := newTestHub(t)
	alice := mustCreateUser(t, repos, "alice")
	bob := mustCreateUser(t, repos, "bob")

	aliceConn1 := loginConn(t, hub, "c1", alice)
	aliceConn2 := loginConn(t, hub, "c2", alice)
	bobConn := loginConn(t, hub, "c3", bob)
	for _, conn := range []*UserConn{aliceConn1, aliceConn2, bobConn} {
		drain(conn)
	}

	hub.handleEvent(aliceConn1, InboundFrame{Event: EventTypingStart})
	drain(bobConn)
	drain(aliceConn2)

	// 正在输入的设备断开,另一台还在线:观察方立刻收到停止指示
	hub.handleLogout(aliceConn1)
	if !hub.Registry.IsOnline(alice.ID) {
		t.Fatal("user must stay online on the second device")
	}
	var sawStop bool
	for {
		select {
		case payload := <-bobConn.SendBack:
			var f OutboundFrame
			if err := json.Unmarshal(payload, &f); err != nil {
				t.Fatal(err)
			}
			if f.Event == EventUserTyping {
				var typing respond.TypingRespond
				if err := json.Unmarshal(mustMarshal(t, f.Data), &typing); err != nil {
					t.Fatal(err)
				}
				if typing.Username == "alice" && !typing.IsTyping {
					sawStop = true
				}
			}
			continue
		default:
		}
		break
	}
	if !sawStop {
		t.Fatal("observer must get the stop indicator when the typing device disconnects")
	}
	if hub.Typing.IsTyping("alice") {
		t.Fatal("typing state of the dead connection must be cleared")
	}
}

func TestTypingClearedOnDisconnect(t *testing.T) {
	hub, repos := newTestHub(t)
	alice := mustCreateUser(t, repos, "alice")
	bob := mustCreateUser(t, repos, "bob")

	aliceConn := loginConn(t, hub, "c1", alice)
	bobConn := loginConn(t, hub, "c2", bob)
	drain(aliceConn)
	drain(bobConn)

	hub.handleEvent(aliceConn, InboundFrame{Event: EventTypingStart})
	frame := nextFrame(t, bobConn)
	if frame.Event != EventUserTyping {
		t.Fatalf("expected user_typing, got %s", frame.Event)
	}
	// 输入方自己收不到
	if events := collectEvents(t, aliceConn); len(events) != 0 {
		t.Fatalf("typing user must not receive own indicator, got %v", events)
	}

	// 输入中断线,观察方收到停止指示
	hub.handleLogout(aliceConn)
	var sawStop bool
	for {
		select {
		case payload := <-bobConn.SendBack:
			var f OutboundFrame
			if err := json.Unmarshal(payload, &f); err != nil {
				t.Fatal(err)
			}
			if f.Event == EventUserTyping {
				var typing respond.TypingRespond
				if err := json.Unmarshal(mustMarshal(t, f.Data), &typing); err != nil {
					t.Fatal(err)
				}
				if typing.Username == "alice" && !typing.IsTyping {
					sawStop = true
				}
			}
			continue
		default:
		}
		break
	}
	if !sawStop {
		t.Fatal("expected typing stop indicator after disconnect")
	}
	if hub.Typing.IsTyping("alice") {
		t.Fatal("typing state must be cleared on disconnect")
	}
}

func TestUnknownEventReturnsError(t *testing.T) {
	hub, repos := newTestHub(t)
	alice := mustCreateUser(t, repos, "alice")
	aliceConn := loginConn(t, hub, "c1", alice)
	drain(aliceConn)

	hub.handleEvent(aliceConn, InboundFrame{Event: "bogus"})
	frame := nextFrame(t, aliceConn)
	if frame.Event != EventError {
		t.Fatalf("expected error event, got %s", frame.Event)
	}
}

// mustMarshal 把帧里的 data 再序列化一次,测试里统一走 json 解码
func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
