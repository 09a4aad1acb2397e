// Package user 账号注册登录和用户资料查询
package user

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vesper_chat_server/internal/dao"
	myredis "vesper_chat_server/internal/dao/redis"
	"vesper_chat_server/internal/dto/request"
	"vesper_chat_server/internal/dto/respond"
	"vesper_chat_server/internal/model"
	"vesper_chat_server/pkg/constants"
	"vesper_chat_server/pkg/errorx"
	"vesper_chat_server/pkg/util/jwt"

	"go.uber.org/zap"
)

// Service 用户业务逻辑,依赖 UserRepository,不感知存储引擎
type Service struct {
	repos *dao.Repositories
}

func NewService(repos *dao.Repositories) *Service {
	return &Service{repos: repos}
}

// Register 注册新用户并直接签发 token,注册即登录
// 密码可以为空,为空的账号之后无法密码登录
func (s *Service) Register(req *request.RegisterRequest) (*respond.AuthRespond, error) {
	if _, err := s.repos.User.FindByUsername(req.Username); err == nil {
		return nil, errorx.New(errorx.CodeUserExist, "用户名已被占用")
	} else if !errorx.IsNotFound(err) {
		return nil, err
	}

	avatar := req.Avatar
	if avatar == "" {
		avatar = model.DefaultAvatar
	}
	user := &model.UserInfo{
		Username:    req.Username,
		Avatar:      avatar,
		RawPassword: req.Password,
	}
	if err := s.repos.User.Create(user); err != nil {
		return nil, err
	}

	token, err := jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeServerBusy, "token 签发失败")
	}
	zap.L().Info("新用户注册", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return &respond.AuthRespond{
		Success: true,
		Token:   token,
		User:    summary(user),
	}, nil
}

// Login 用户名密码登录
// 用户不存在和密码错误返回同样的提示,不泄露账号是否存在
func (s *Service) Login(req *request.LoginRequest) (*respond.AuthRespond, error) {
	user, err := s.repos.User.FindByUsername(req.Username)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeInvalidPassword, "用户名或密码错误")
		}
		return nil, err
	}
	if !user.CheckPassword(req.Password) {
		return nil, errorx.New(errorx.CodeInvalidPassword, "用户名或密码错误")
	}

	token, err := jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeServerBusy, "token 签发失败")
	}
	return &respond.AuthRespond{
		Success: true,
		Token:   token,
		User:    summary(user),
	}, nil
}

// VerifyToken 校验 token 并返回对应用户,不重新签发
func (s *Service) VerifyToken(token string) (*respond.AuthRespond, error) {
	claims, err := jwt.ParseToken(token)
	if err != nil {
		return nil, errorx.New(errorx.CodeUnauthorized, "token 无效或已过期")
	}
	user, err := s.GetUserByID(claims.UserID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		return nil, err
	}
	return &respond.AuthRespond{
		Success: true,
		User:    summary(user),
	}, nil
}

// GetUserByID 按 ID 查用户,走缓存,在线状态等易变字段允许分钟级延迟
func (s *Service) GetUserByID(id int64) (*model.UserInfo, error) {
	key := fmt.Sprintf("user_info_%d", id)
	if myredis.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Second)
		raw, err := myredis.GetKeyNilIsErr(ctx, key)
		cancel()
		if err == nil {
			var cached model.UserInfo
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	user, err := s.repos.User.FindByID(id)
	if err != nil {
		return nil, err
	}

	if myredis.Enabled() {
		snapshot := *user
		myredis.SubmitCacheTask(func() {
			raw, err := json.Marshal(&snapshot)
			if err != nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Second)
			defer cancel()
			if err := myredis.SetKeyEx(ctx, key, string(raw), time.Minute*constants.REDIS_TIMEOUT); err != nil {
				zap.L().Error("用户资料写缓存失败", zap.Int64("user_id", snapshot.ID), zap.Error(err))
			}
		})
	}
	return user, nil
}

// GetProfile 用户资料,不存在返回 CodeUserNotExist
func (s *Service) GetProfile(id int64) (*respond.UserProfileRespond, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		return nil, err
	}
	return &respond.UserProfileRespond{
		ID:       user.ID,
		Username: user.Username,
		Avatar:   user.Avatar,
		Online:   user.IsOnline,
		JoinedAt: user.CreatedAt,
		LastSeen: user.LastSeenAt,
	}, nil
}

// ListUsers 全部注册用户,按注册顺序
func (s *Service) ListUsers() ([]respond.UserListRespond, error) {
	users, err := s.repos.User.FindAll()
	if err != nil {
		return nil, err
	}
	list := make([]respond.UserListRespond, 0, len(users))
	for i := range users {
		user := &users[i]
		list = append(list, respond.UserListRespond{
			ID:        user.ID,
			Username:  user.Username,
			Avatar:    user.Avatar,
			CreatedAt: user.CreatedAt,
			IsOnline:  user.IsOnline,
			LastSeen:  user.LastSeenAt,
		})
	}
	return list, nil
}

// ServerInfo 服务器状态概览
func (s *Service) ServerInfo() (*respond.ServerInfoRespond, error) {
	total, err := s.repos.User.CountAll()
	if err != nil {
		return nil, err
	}
	online, err := s.repos.User.CountOnline()
	if err != nil {
		return nil, err
	}
	return &respond.ServerInfoRespond{
		Status:     "running",
		Users:      online,
		TotalUsers: total,
		Timestamp:  time.Now().Format(time.RFC3339),
	}, nil
}

func summary(user *model.UserInfo) respond.UserSummary {
	return respond.UserSummary{
		ID:       user.ID,
		Username: user.Username,
		Avatar:   user.Avatar,
	}
}
