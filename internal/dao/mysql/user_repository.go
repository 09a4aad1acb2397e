package mysql

import (
	"time"

	"vesper_chat_server/internal/dao"
	"vesper_chat_server/internal/model"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *gorm.DB) dao.UserRepository {
	return &userRepository{db: db}
}

// Create 创建用户
func (r *userRepository) Create(user *model.UserInfo) error {
	if err := r.db.Create(user).Error; err != nil {
		return wrapDBErrorf(err, "创建用户 username=%s", user.Username)
	}
	return nil
}

// FindByUsername 按用户名查找用户
func (r *userRepository) FindByUsername(username string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 username=%s", username)
	}
	return &user, nil
}

// FindByID 按 ID 查找用户
func (r *userRepository) FindByID(id int64) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 id=%d", id)
	}
	return &user, nil
}

// FindAll 查找所有用户
func (r *userRepository) FindAll() ([]model.UserInfo, error) {
	var users []model.UserInfo
	if err := r.db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, wrapDBError(err, "查询用户列表")
	}
	return users, nil
}

// UpdateOnlineStatus 更新在线标志并刷新最近活跃时间
func (r *userRepository) UpdateOnlineStatus(id int64, online bool) error {
	updates := map[string]interface{}{
		"is_online":    online,
		"last_seen_at": time.Now(),
	}
	if err := r.db.Model(&model.UserInfo{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return wrapDBErrorf(err, "更新在线状态 id=%d", id)
	}
	return nil
}

// CountAll 用户总数
func (r *userRepository) CountAll() (int64, error) {
	var count int64
	if err := r.db.Model(&model.UserInfo{}).Count(&count).Error; err != nil {
		return 0, wrapDBError(err, "统计用户总数")
	}
	return count, nil
}

// CountOnline 在线用户数
func (r *userRepository) CountOnline() (int64, error) {
	var count int64
	if err := r.db.Model(&model.UserInfo{}).Where("is_online = ?", true).Count(&count).Error; err != nil {
		return 0, wrapDBError(err, "统计在线用户数")
	}
	return count, nil
}
