package chat

import (
	"net/http"
	"sync"
	"time"

	"vesper_chat_server/internal/dto/respond"
	"vesper_chat_server/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UserConn 一条 websocket 连接,一个用户可以同时持有多条
type UserConn struct {
	Conn     *websocket.Conn
	ConnID   string // 连接级标识,与用户标识无关
	UserID   int64
	Username string
	Avatar   string
	JoinedAt time.Time // 账号注册时间,在线列表里展示用
	SendBack chan []byte

	hub       *Hub
	closeOnce sync.Once
	gone      bool // 登出先于登录被处理时置位,只在 hub 的事件 goroutine 里读写
}

// NewClientInit 升级 websocket 并把连接挂进 hub,调用前必须已完成 token 校验
func NewClientInit(c *gin.Context, hub *Hub, user *model.UserInfo) error {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("websocket 升级失败", zap.Error(err))
		return err
	}
	client := &UserConn{
		Conn:     conn,
		ConnID:   uuid.New().String(),
		UserID:   user.ID,
		Username: user.Username,
		Avatar:   user.Avatar,
		JoinedAt: user.CreatedAt,
		SendBack: make(chan []byte, hub.channelSize),
		hub:      hub,
	}
	hub.Login <- client
	go client.Read()
	go client.Write()
	return nil
}

// Read 读泵,连接的所有上行帧都经过这里进入 hub,退出时必然触发一次登出
func (c *UserConn) Read() {
	defer func() {
		c.hub.Logout <- c
	}()
	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Info("websocket 连接异常断开", zap.String("conn_id", c.ConnID), zap.Error(err))
			}
			return
		}
		c.hub.Dispatch(c, payload)
	}
}

// Write 写泵,SendBack 关闭后退出并关掉底层连接
func (c *UserConn) Write() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for payload := range c.SendBack {
		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			zap.L().Warn("websocket 写入失败", zap.String("conn_id", c.ConnID), zap.Error(err))
			return
		}
	}
}

// Send 组帧后投递到本连接,缓冲满时丢弃,不阻塞 hub
func (c *UserConn) Send(event string, data any) {
	c.deliver(encodeFrame(event, data))
}

func (c *UserConn) deliver(payload []byte) {
	if payload == nil {
		return
	}
	defer func() {
		// SendBack 可能已被 Close 关闭
		_ = recover()
	}()
	select {
	case c.SendBack <- payload:
	default:
		zap.L().Warn("发送缓冲已满,丢弃消息", zap.String("conn_id", c.ConnID))
	}
}

// SendError 给当前连接回一条 error 事件
func (c *UserConn) SendError(message string) {
	c.Send(EventError, respond.ErrorRespond{Message: message})
}

// Close 关闭发送通道,写泵随之退出并断开底层连接
func (c *UserConn) Close() {
	c.closeOnce.Do(func() {
		close(c.SendBack)
	})
}
