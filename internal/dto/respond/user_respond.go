package respond

import "time"

// OnlineUserRespond users_update 事件中的在线用户条目
type OnlineUserRespond struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	JoinedAt time.Time `json:"joinedAt"`
	IsOnline bool      `json:"isOnline"`
}

// UserProfileRespond get_user_profile / GET /api/user/:id 的用户资料
type UserProfileRespond struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	Online   bool      `json:"online"`
	JoinedAt time.Time `json:"joinedAt"`
	LastSeen time.Time `json:"lastSeen"`
}

// UserListRespond GET /api/users 的用户条目
type UserListRespond struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	IsOnline  bool      `json:"is_online"`
	LastSeen  time.Time `json:"last_seen"`
}

// ServerInfoRespond GET /api/info 的服务器状态
type ServerInfoRespond struct {
	Status     string `json:"status"`
	Users      int64  `json:"users"`
	TotalUsers int64  `json:"total_users"`
	Timestamp  string `json:"timestamp"`
}
