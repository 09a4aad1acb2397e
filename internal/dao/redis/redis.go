// Package redis 提供 Redis 缓存操作的封装
// 作为可选的读加速层：缓存未启用或出错时，调用方一律退化为直查存储
// 使用 github.com/redis/go-redis/v9 作为底层客户端
package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"vesper_chat_server/internal/config"
	"vesper_chat_server/pkg/errorx"

	"github.com/redis/go-redis/v9"
)

// redisClient 全局 Redis 客户端实例；未启用缓存时保持 nil
var redisClient *redis.Client

// Init 初始化 Redis 连接
// 从配置文件读取连接参数并创建客户端实例；enabled=false 时什么也不做
func Init() {
	conf := config.GetConfig()
	if !conf.RedisConfig.Enabled {
		return
	}

	addr := conf.RedisConfig.Host + ":" + strconv.Itoa(conf.RedisConfig.Port)
	redisClient = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: conf.RedisConfig.Password,
		DB:       conf.RedisConfig.Db,

		// 连接池配置
		PoolSize:     50,
		MinIdleConns: 15,
	})

	// 初始化缓存更新 Worker Pool
	// 启动 15 个 Worker，缓冲区大小 3000
	InitCacheWorker(15, 3000)
}

// Enabled 缓存是否可用
func Enabled() bool {
	return redisClient != nil
}

// SetKeyEx 设置键值对并指定过期时间
func SetKeyEx(ctx context.Context, key string, value string, timeout time.Duration) error {
	if redisClient == nil {
		return nil
	}
	if err := redisClient.Set(ctx, key, value, timeout).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis set key %s", key)
	}
	return nil
}

// GetKeyNilIsErr 获取键对应的值
// 键不存在返回 CodeNotFound 错误，调用方据此回源存储
func GetKeyNilIsErr(ctx context.Context, key string) (string, error) {
	if redisClient == nil {
		return "", errorx.Newf(errorx.CodeNotFound, "redis disabled")
	}
	value, err := redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errorx.Wrapf(err, errorx.CodeNotFound, "redis key %s not found", key)
		}
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "redis get key %s", key)
	}
	return value, nil
}

// DelKeyIfExists 删除键（如果存在）
func DelKeyIfExists(ctx context.Context, key string) error {
	if redisClient == nil {
		return nil
	}
	exists, err := redisClient.Exists(ctx, key).Result()
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis exists key %s", key)
	}
	if exists == 1 {
		if err := redisClient.Del(ctx, key).Err(); err != nil {
			return errorx.Wrapf(err, errorx.CodeCacheError, "redis delete key %s", key)
		}
	}
	return nil
}

// DelKeysWithPrefix 删除指定前缀的所有键
// 使用 SCAN 分批扫描 + UNLINK 异步删除，不阻塞 Redis
func DelKeysWithPrefix(ctx context.Context, prefix string) error {
	if redisClient == nil {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := redisClient.Scan(ctx, cursor, prefix+"*", 500).Result()
		if err != nil {
			return errorx.Wrapf(err, errorx.CodeCacheError, "redis scan prefix %s", prefix)
		}
		if len(keys) > 0 {
			if err := redisClient.Unlink(ctx, keys...).Err(); err != nil {
				return errorx.Wrapf(err, errorx.CodeCacheError, "redis unlink keys with prefix %s", prefix)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}
