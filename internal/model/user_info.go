// Package model 定义数据库实体模型
// 本文件定义用户信息模型，包含用户基本资料和认证信息
package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultAvatar 未设置头像时的默认值
const DefaultAvatar = "👤"

// UserInfo 用户信息模型
// 对应数据库 user_info 表
// 用户身份与连接是两个实体：这里只描述身份，连接由 chat.SessionRegistry 管理
type UserInfo struct {
	// ID 用户唯一标识，自增主键
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`

	// Username 用户名，全局唯一，登录凭证
	Username string `gorm:"column:username;uniqueIndex;type:varchar(50);not null;comment:用户名"`

	// Avatar 用户头像（emoji 或 URL）
	Avatar string `gorm:"column:avatar;type:varchar(255);default:👤;comment:头像"`

	// Password 密码（已哈希）
	// 存储 bcrypt 哈希后的密码；为空表示该账号未设置密码，不可密码登录
	Password string `gorm:"column:password;type:varchar(100);comment:密码" json:"-"`

	// IsOnline 在线标志
	// 镜像"活跃会话数 > 0"，由会话注册表在连接建立/断开时更新
	IsOnline bool `gorm:"column:is_online;not null;default:false;comment:是否在线"`

	// LastSeenAt 最近活跃时间
	LastSeenAt time.Time `gorm:"column:last_seen_at;comment:最近活跃时间"`

	// CreatedAt 注册时间
	CreatedAt time.Time `gorm:"column:created_at"`

	// RawPassword 明文密码（不存入数据库）
	// 用于接收前端传来的明文密码，在 BeforeSave 中加密
	RawPassword string `gorm:"-" json:"-"`
}

// TableName 指定表名
func (UserInfo) TableName() string {
	return "user_info"
}

// BeforeSave GORM Hook：在创建和更新前自动调用
// 将 RawPassword 明文密码加密后存入 Password 字段
// 调用方只需设置 RawPassword，无需手动加密
func (u *UserInfo) BeforeSave(tx *gorm.DB) (err error) {
	if u.RawPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.RawPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hash)
		u.RawPassword = "" // 清空明文，防止泄露
	}
	return nil
}

// HashPassword 手动触发密码哈希
// memory 存储引擎不经过 GORM Hook，需要显式调用
func (u *UserInfo) HashPassword() error {
	return u.BeforeSave(nil)
}

// CheckPassword 校验密码是否正确
// 未设置密码的账号任何输入都校验失败
func (u *UserInfo) CheckPassword(plaintext string) bool {
	if u.Password == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plaintext))
	return err == nil
}
