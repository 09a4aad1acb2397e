package chat

import "sync"

// TypingCoordinator 按连接记录输入状态,只用于断线时补发停止通知,不做超时清理
// 同一用户多台设备各自持有标记,哪条连接设的标记就由哪条连接的断开来清
type TypingCoordinator struct {
	mu     sync.Mutex
	typing map[string]string // connID -> username
}

func NewTypingCoordinator() *TypingCoordinator {
	return &TypingCoordinator{typing: make(map[string]string)}
}

// Start 标记某条连接正在输入,重复调用幂等
func (t *TypingCoordinator) Start(connID, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.typing[connID] = username
}

// Stop 清除某条连接的输入标记,返回该用户是否因此不再处于输入状态
// 该用户的其他连接还在输入时不算状态变化
func (t *TypingCoordinator) Stop(connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	username, ok := t.typing[connID]
	if !ok {
		return false
	}
	delete(t.typing, connID)
	for _, other := range t.typing {
		if other == username {
			return false
		}
	}
	return true
}

// IsTyping 查询某个用户当前是否有连接在输入
func (t *TypingCoordinator) IsTyping(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, name := range t.typing {
		if name == username {
			return true
		}
	}
	return false
}
