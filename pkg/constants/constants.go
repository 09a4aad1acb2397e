package constants

const (
	CHANNEL_SIZE          = 100  // 通道大小
	HISTORY_LIMIT         = 50   // 进入聊天时回放的历史消息条数
	GLOBAL_HISTORY_FETCH  = 100  // 全局消息查询上限
	MESSAGE_RETENTION_CAP = 1000 // 消息保留上限，超出后按 FIFO 淘汰
	REDIS_TIMEOUT         = 1    // redis timeout (分钟)
	TOKEN_EXPIRY_HOURS    = 168  // Token 有效期（小时），168小时 = 7天
	MIN_PASSWORD_LENGTH   = 6    // 密码最小长度
)
