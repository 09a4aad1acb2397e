package chat

import (
	"encoding/json"
	"testing"

	"vesper_chat_server/pkg/errorx"
)

func testConn(connID string, userID int64, username string) *UserConn {
	return &UserConn{
		ConnID:   connID,
		UserID:   userID,
		Username: username,
		SendBack: make(chan []byte, 16),
	}
}

func TestRegisterRejectsDuplicateConnID(t *testing.T) {
	registry := NewSessionRegistry()
	if err := registry.Register(testConn("c1", 1, "alice")); err != nil {
		t.Fatal(err)
	}
	err := registry.Register(testConn("c1", 2, "bob"))
	if errorx.GetCode(err) != errorx.CodeDuplicateConnection {
		t.Fatalf("expected CodeDuplicateConnection, got %v", err)
	}
	// 原有会话不受影响
	if !registry.IsOnline(1) {
		t.Fatal("existing session must survive duplicate registration")
	}
	if registry.IsOnline(2) {
		t.Fatal("failed registration must not create a session")
	}
}

func TestOnlineWhileAnySessionRemains(t *testing.T) {
	registry := NewSessionRegistry()
	if err := registry.Register(testConn("c1", 1, "alice")); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(testConn("c2", 1, "alice")); err != nil {
		t.Fatal(err)
	}
	if registry.SessionCount(1) != 2 {
		t.Fatalf("expected 2 sessions, got %d", registry.SessionCount(1))
	}

	registry.Unregister("c1")
	if !registry.IsOnline(1) {
		t.Fatal("user must stay online while one session remains")
	}

	registry.Unregister("c2")
	if registry.IsOnline(1) {
		t.Fatal("user must be offline after last session closes")
	}
}

func TestUnregisterUnknownConnIsNoop(t *testing.T) {
	registry := NewSessionRegistry()
	if conn := registry.Unregister("missing"); conn != nil {
		t.Fatalf("expected nil for unknown conn, got %v", conn)
	}
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	registry := NewSessionRegistry()
	alice := testConn("c1", 1, "alice")
	bob := testConn("c2", 2, "bob")
	if err := registry.Register(alice); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(bob); err != nil {
		t.Fatal(err)
	}

	registry.BroadcastExcept("c1", encodeFrame(EventUserJoined, nil))

	select {
	case <-alice.SendBack:
		t.Fatal("sender must not receive its own broadcast")
	default:
	}
	select {
	case payload := <-bob.SendBack:
		var frame OutboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			t.Fatal(err)
		}
		if frame.Event != EventUserJoined {
			t.Fatalf("expected %s, got %s", EventUserJoined, frame.Event)
		}
	default:
		t.Fatal("other connection must receive broadcast")
	}
}

func TestSendToUserReachesAllSessions(t *testing.T) {
	registry := NewSessionRegistry()
	first := testConn("c1", 1, "alice")
	second := testConn("c2", 1, "alice")
	if err := registry.Register(first); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(second); err != nil {
		t.Fatal(err)
	}

	registry.SendToUser(1, encodeFrame(EventUnreadCleared, nil))
	if len(first.SendBack) != 1 || len(second.SendBack) != 1 {
		t.Fatal("every session of the user must receive the payload")
	}

	// 离线用户静默丢弃
	registry.SendToUser(99, encodeFrame(EventUnreadCleared, nil))
}

func TestPresenceSnapshotDeduplicatesSessions(t *testing.T) {
	registry := NewSessionRegistry()
	presence := NewPresenceTracker(registry)

	if err := registry.Register(testConn("c1", 2, "bob")); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(testConn("c2", 1, "alice")); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(testConn("c3", 1, "alice")); err != nil {
		t.Fatal(err)
	}

	snapshot := presence.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 distinct users, got %d", len(snapshot))
	}
	// 按用户 ID 升序
	if snapshot[0].ID != 1 || snapshot[1].ID != 2 {
		t.Fatalf("unexpected order: %d %d", snapshot[0].ID, snapshot[1].ID)
	}
}
