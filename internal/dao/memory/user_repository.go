package memory

import (
	"sync"
	"time"

	"vesper_chat_server/internal/dao"
	"vesper_chat_server/internal/model"
	"vesper_chat_server/pkg/errorx"
)

// userRepository 内存用户存储
// users 与 usernameIndex 同锁保护，用户名到 ID 的索引避免按名查找时线性扫描
type userRepository struct {
	mu            sync.RWMutex
	users         map[int64]*model.UserInfo
	usernameIndex map[string]int64
	nextID        int64
}

// NewUserRepository 创建内存用户 Repository
func NewUserRepository() dao.UserRepository {
	return &userRepository{
		users:         make(map[int64]*model.UserInfo),
		usernameIndex: make(map[string]int64),
		nextID:        1,
	}
}

// Create 创建用户
// ID 由内部自增序列分配；用户名冲突返回 CodeUserExist
func (r *userRepository) Create(user *model.UserInfo) error {
	// 密码哈希在 mysql 实现中由 GORM Hook 完成，这里手动触发
	if err := user.HashPassword(); err != nil {
		return errorx.Wrap(err, errorx.CodeDBError, "密码哈希失败")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.usernameIndex[user.Username]; ok {
		return errorx.Newf(errorx.CodeUserExist, "用户 %s 已存在", user.Username)
	}

	user.ID = r.nextID
	r.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.LastSeenAt.IsZero() {
		user.LastSeenAt = user.CreatedAt
	}
	if user.Avatar == "" {
		user.Avatar = model.DefaultAvatar
	}

	stored := *user
	r.users[stored.ID] = &stored
	r.usernameIndex[stored.Username] = stored.ID
	return nil
}

// FindByUsername 按用户名查找用户
func (r *userRepository) FindByUsername(username string) (*model.UserInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.usernameIndex[username]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "查询用户 username=%s", username)
	}
	user := *r.users[id]
	return &user, nil
}

// FindByID 按 ID 查找用户
func (r *userRepository) FindByID(id int64) (*model.UserInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.users[id]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "查询用户 id=%d", id)
	}
	user := *stored
	return &user, nil
}

// FindAll 查找所有用户，按 ID 升序
func (r *userRepository) FindAll() ([]model.UserInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.UserInfo, 0, len(r.users))
	for id := int64(1); id < r.nextID; id++ {
		if stored, ok := r.users[id]; ok {
			users = append(users, *stored)
		}
	}
	return users, nil
}

// UpdateOnlineStatus 更新在线标志并刷新最近活跃时间
func (r *userRepository) UpdateOnlineStatus(id int64, online bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok {
		return errorx.Newf(errorx.CodeNotFound, "更新在线状态 id=%d", id)
	}
	stored.IsOnline = online
	stored.LastSeenAt = time.Now()
	return nil
}

// CountAll 用户总数
func (r *userRepository) CountAll() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

// CountOnline 在线用户数
func (r *userRepository) CountOnline() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, u := range r.users {
		if u.IsOnline {
			count++
		}
	}
	return count, nil
}
