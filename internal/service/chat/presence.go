package chat

import (
	"sort"

	"vesper_chat_server/internal/dto/respond"
)

// PresenceTracker 在线名单视图,数据来源是连接注册表,不单独维护状态
type PresenceTracker struct {
	registry *SessionRegistry
}

func NewPresenceTracker(registry *SessionRegistry) *PresenceTracker {
	return &PresenceTracker{registry: registry}
}

// Snapshot 当前在线用户列表,多端登录的用户只出现一次,按用户 ID 升序
func (p *PresenceTracker) Snapshot() []respond.OnlineUserRespond {
	conns := p.registry.OnlineUsers()
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].UserID < conns[j].UserID
	})
	users := make([]respond.OnlineUserRespond, 0, len(conns))
	for _, conn := range conns {
		users = append(users, respond.OnlineUserRespond{
			ID:       conn.UserID,
			Username: conn.Username,
			Avatar:   conn.Avatar,
			JoinedAt: conn.JoinedAt,
			IsOnline: true,
		})
	}
	return users
}
