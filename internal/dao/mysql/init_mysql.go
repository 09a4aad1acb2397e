// Package mysql 提供存储协作方的 MySQL 实现
// 负责建立 MySQL 连接、自动迁移表结构、初始化 Repository 层
package mysql

import (
	"fmt"

	"vesper_chat_server/internal/config"
	"vesper_chat_server/internal/dao"
	"vesper_chat_server/internal/model"

	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Init 初始化数据库连接并返回 Repository 层实例
// 执行步骤：
//  1. 从配置读取 MySQL 连接信息
//  2. 构建 DSN（Data Source Name）连接字符串
//  3. 使用 GORM 建立数据库连接
//  4. 执行 AutoMigrate 自动迁移表结构
//  5. 创建并返回 Repository 实例
//
// retentionCap: 消息保留上限，超出后 FIFO 淘汰
func Init(retentionCap int) *dao.Repositories {
	conf := config.GetConfig()

	// 构建 MySQL DSN 连接字符串
	// 格式：user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.MysqlConfig.User,
		conf.MysqlConfig.Password,
		conf.MysqlConfig.Host,
		conf.MysqlConfig.Port,
		conf.MysqlConfig.DatabaseName,
	)

	db, err := gorm.Open(mysqldriver.Open(dsn), &gorm.Config{})
	if err != nil {
		zap.L().Fatal(err.Error())
	}

	// AutoMigrate 自动迁移表结构
	// 如果表不存在则创建，如果字段变更则更新结构
	err = db.AutoMigrate(
		&model.UserInfo{}, // 用户信息表
		&model.Message{},  // 消息表
	)
	if err != nil {
		zap.L().Fatal(err.Error())
	}

	return NewRepositories(db, retentionCap)
}

// NewRepositories 基于已有 GORM 实例创建 Repository 聚合
func NewRepositories(db *gorm.DB, retentionCap int) *dao.Repositories {
	return &dao.Repositories{
		User:    NewUserRepository(db),
		Message: NewMessageRepository(db, retentionCap),
	}
}
