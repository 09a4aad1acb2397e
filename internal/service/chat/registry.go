package chat

import (
	"sync"

	"vesper_chat_server/pkg/errorx"
)

// SessionRegistry 连接注册表,用户和连接是一对多关系
type SessionRegistry struct {
	mu     sync.RWMutex
	conns  map[string]*UserConn           // conn_id -> 连接
	byUser map[int64]map[string]*UserConn // user_id -> 该用户的全部连接
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		conns:  make(map[string]*UserConn),
		byUser: make(map[int64]map[string]*UserConn),
	}
}

// Register 登记连接,conn_id 重复视为登记失败,已有会话不受影响
func (r *SessionRegistry) Register(conn *UserConn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[conn.ConnID]; ok {
		return errorx.New(errorx.CodeDuplicateConnection, "连接标识重复")
	}
	r.conns[conn.ConnID] = conn
	set, ok := r.byUser[conn.UserID]
	if !ok {
		set = make(map[string]*UserConn)
		r.byUser[conn.UserID] = set
	}
	set[conn.ConnID] = conn
	return nil
}

// Unregister 摘除连接,返回被摘除的连接,未登记过返回 nil
func (r *SessionRegistry) Unregister(connID string) *UserConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[connID]
	if !ok {
		return nil
	}
	delete(r.conns, connID)
	set := r.byUser[conn.UserID]
	delete(set, connID)
	if len(set) == 0 {
		delete(r.byUser, conn.UserID)
	}
	return conn
}

// IsOnline 至少持有一条连接即视为在线
func (r *SessionRegistry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// SessionCount 返回某个用户当前持有的连接数
func (r *SessionRegistry) SessionCount(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}

// SessionsFor 返回某个用户全部连接的快照
func (r *SessionRegistry) SessionsFor(userID int64) []*UserConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*UserConn, 0, len(r.byUser[userID]))
	for _, conn := range r.byUser[userID] {
		conns = append(conns, conn)
	}
	return conns
}

// OnlineUsers 每个在线用户取一条连接作为身份信息来源
func (r *SessionRegistry) OnlineUsers() []*UserConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]*UserConn, 0, len(r.byUser))
	for _, set := range r.byUser {
		for _, conn := range set {
			users = append(users, conn)
			break
		}
	}
	return users
}

// Broadcast 投递给全部在线连接
func (r *SessionRegistry) Broadcast(payload []byte) {
	if payload == nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, conn := range r.conns {
		conn.deliver(payload)
	}
}

// BroadcastExcept 投递给除指定连接外的全部在线连接
func (r *SessionRegistry) BroadcastExcept(connID string, payload []byte) {
	if payload == nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, conn := range r.conns {
		if id == connID {
			continue
		}
		conn.deliver(payload)
	}
}

// SendToUser 投递给某个用户的全部连接,用户离线时静默丢弃
func (r *SessionRegistry) SendToUser(userID int64, payload []byte) {
	if payload == nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, conn := range r.byUser[userID] {
		conn.deliver(payload)
	}
}
