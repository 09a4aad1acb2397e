package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	myredis "vesper_chat_server/internal/dao/redis"
	"vesper_chat_server/internal/dto/respond"
	"vesper_chat_server/pkg/constants"
	"vesper_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// 私聊历史缓存,key 按用户对归一化,方向无关
// 缓存内容是已组装好的下行负载,命中时不再回源用户表

func privateCacheKey(userA, userB int64) string {
	low, high := userA, userB
	if low > high {
		low, high = high, low
	}
	return fmt.Sprintf("message_list_%d_%d", low, high)
}

const globalCacheKey = "global_message_list"

// globalCacheGen 全局历史缓存的版本号,每次失效递增
// 写缓存任务和失效任务跑在同一个工作池上,彼此没有先后保证,
// 写任务落盘前校验版本,版本变过说明期间有新消息,放弃这次写入
var globalCacheGen atomic.Int64

func globalCacheVersion() int64 {
	return globalCacheGen.Load()
}

func globalCacheStale(gen int64) bool {
	return globalCacheGen.Load() != gen
}

// cachedGlobalHistory 尝试从缓存取全局回放列表,未命中返回 CodeNotFound
func cachedGlobalHistory() ([]respond.GlobalMessageRespond, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Second)
	defer cancel()
	raw, err := myredis.GetKeyNilIsErr(ctx, globalCacheKey)
	if err != nil {
		return nil, err
	}
	var list []respond.GlobalMessageRespond
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, errorx.Wrap(err, errorx.CodeCacheError, "全局历史缓存损坏")
	}
	return list, nil
}

// storeGlobalHistory 全局回放列表写缓存,异步执行
// gen 是组装回放列表时捕获的缓存版本,执行时版本已变则放弃
func storeGlobalHistory(gen int64, list []respond.GlobalMessageRespond) {
	if !myredis.Enabled() {
		return
	}
	myredis.SubmitCacheTask(func() {
		raw, err := json.Marshal(list)
		if err != nil {
			zap.L().Error("全局历史缓存序列化失败", zap.Error(err))
			return
		}
		if globalCacheStale(gen) {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Second)
		defer cancel()
		if err := myredis.SetKeyEx(ctx, globalCacheKey, string(raw), time.Minute*constants.REDIS_TIMEOUT); err != nil {
			zap.L().Error("全局历史写缓存失败", zap.Error(err))
		}
	})
}

// cachedPrivateHistory 尝试从缓存取私聊历史,未命中返回 CodeNotFound
func cachedPrivateHistory(userA, userB int64) ([]respond.PrivateMessageRespond, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Second)
	defer cancel()
	raw, err := myredis.GetKeyNilIsErr(ctx, privateCacheKey(userA, userB))
	if err != nil {
		return nil, err
	}
	var list []respond.PrivateMessageRespond
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, errorx.Wrap(err, errorx.CodeCacheError, "私聊历史缓存损坏")
	}
	return list, nil
}

// storePrivateHistory 私聊历史写缓存,异步执行
func storePrivateHistory(userA, userB int64, list []respond.PrivateMessageRespond) {
	if !myredis.Enabled() {
		return
	}
	key := privateCacheKey(userA, userB)
	myredis.SubmitCacheTask(func() {
		raw, err := json.Marshal(list)
		if err != nil {
			zap.L().Error("私聊历史缓存序列化失败", zap.Error(err))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Second)
		defer cancel()
		if err := myredis.SetKeyEx(ctx, key, string(raw), time.Minute*constants.REDIS_TIMEOUT); err != nil {
			zap.L().Error("私聊历史写缓存失败", zap.Error(err))
		}
	})
}

// appendPrivateCache 新私聊消息追加进已存在的缓存,缓存不存在则什么也不做
func (h *Hub) appendPrivateCache(senderID, receiverID int64, rsp respond.PrivateMessageRespond) {
	if !myredis.Enabled() {
		return
	}
	myredis.SubmitCacheTask(func() {
		list, err := cachedPrivateHistory(senderID, receiverID)
		if err != nil {
			return
		}
		list = append(list, rsp)
		if len(list) > h.historyLimit {
			list = list[len(list)-h.historyLimit:]
		}
		raw, err := json.Marshal(list)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Second)
		defer cancel()
		if err := myredis.SetKeyEx(ctx, privateCacheKey(senderID, receiverID), string(raw), time.Minute*constants.REDIS_TIMEOUT); err != nil {
			zap.L().Error("私聊历史追加缓存失败", zap.Error(err))
		}
	})
}

// invalidatePrivateCache 已读标记改变消息内容的 read 字段,直接丢弃对应缓存
func (h *Hub) invalidatePrivateCache(userA, userB int64) {
	if !myredis.Enabled() {
		return
	}
	key := privateCacheKey(userA, userB)
	myredis.SubmitCacheTask(func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Second)
		defer cancel()
		if err := myredis.DelKeyIfExists(ctx, key); err != nil {
			zap.L().Error("私聊历史缓存失效失败", zap.Error(err))
		}
	})
}

// invalidateGlobalCache 新全局消息后丢弃全局历史缓存,版本同步递增
func (h *Hub) invalidateGlobalCache() {
	globalCacheGen.Add(1)
	if !myredis.Enabled() {
		return
	}
	myredis.SubmitCacheTask(func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Second)
		defer cancel()
		if err := myredis.DelKeyIfExists(ctx, globalCacheKey); err != nil {
			zap.L().Error("全局历史缓存失效失败", zap.Error(err))
		}
	})
}
