package user

import (
	"testing"

	"vesper_chat_server/internal/dao/memory"
	"vesper_chat_server/internal/dto/request"
	"vesper_chat_server/internal/model"
	"vesper_chat_server/pkg/errorx"
	"vesper_chat_server/pkg/util/jwt"
)

func newTestService() *Service {
	jwt.Init("unit-test-secret", 1)
	return NewService(memory.Init(1000))
}

func TestRegisterIssuesToken(t *testing.T) {
	svc := newTestService()

	rsp, err := svc.Register(&request.RegisterRequest{
		Username: "alice",
		Avatar:   "🦄",
		Password: "secret1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !rsp.Success || rsp.Token == "" {
		t.Fatalf("expected token on register, got %+v", rsp)
	}
	if rsp.User.Username != "alice" || rsp.User.ID == 0 {
		t.Fatalf("unexpected user summary: %+v", rsp.User)
	}

	claims, err := jwt.ParseToken(rsp.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != rsp.User.ID || claims.Username != "alice" {
		t.Fatalf("token claims mismatch: %+v", claims)
	}
}

func TestRegisterDefaultsAvatar(t *testing.T) {
	svc := newTestService()
	rsp, err := svc.Register(&request.RegisterRequest{Username: "bob"})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.User.Avatar != model.DefaultAvatar {
		t.Fatalf("expected default avatar, got %q", rsp.User.Avatar)
	}
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Register(&request.RegisterRequest{Username: "alice", Avatar: "🦄"}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(&request.RegisterRequest{Username: "alice", Avatar: "👻"})
	if errorx.GetCode(err) != errorx.CodeUserExist {
		t.Fatalf("expected CodeUserExist, got %v", err)
	}
}

func TestLoginChecksPassword(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Register(&request.RegisterRequest{
		Username: "alice", Avatar: "🦄", Password: "secret1",
	}); err != nil {
		t.Fatal(err)
	}

	rsp, err := svc.Login(&request.LoginRequest{Username: "alice", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	if !rsp.Success || rsp.Token == "" {
		t.Fatalf("expected successful login, got %+v", rsp)
	}

	if _, err := svc.Login(&request.LoginRequest{Username: "alice", Password: "wrong"}); errorx.GetCode(err) != errorx.CodeInvalidPassword {
		t.Fatalf("expected CodeInvalidPassword, got %v", err)
	}
	// 不存在的用户和密码错误提示一致
	if _, err := svc.Login(&request.LoginRequest{Username: "ghost", Password: "whatever"}); errorx.GetCode(err) != errorx.CodeInvalidPassword {
		t.Fatalf("expected CodeInvalidPassword for unknown user, got %v", err)
	}
}

func TestPasswordlessAccountCannotLogin(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Register(&request.RegisterRequest{Username: "nopass", Avatar: "👻"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(&request.LoginRequest{Username: "nopass", Password: ""}); errorx.GetCode(err) != errorx.CodeInvalidPassword {
		t.Fatalf("expected CodeInvalidPassword, got %v", err)
	}
}

func TestVerifyTokenRoundTrip(t *testing.T) {
	svc := newTestService()
	reg, err := svc.Register(&request.RegisterRequest{Username: "alice", Avatar: "🦄"})
	if err != nil {
		t.Fatal(err)
	}

	rsp, err := svc.VerifyToken(reg.Token)
	if err != nil {
		t.Fatal(err)
	}
	if !rsp.Success || rsp.User.ID != reg.User.ID {
		t.Fatalf("unexpected verify respond: %+v", rsp)
	}
	// 校验不重新签发
	if rsp.Token != "" {
		t.Fatal("verify must not issue a new token")
	}

	if _, err := svc.VerifyToken("garbage"); errorx.GetCode(err) != errorx.CodeUnauthorized {
		t.Fatalf("expected CodeUnauthorized, got %v", err)
	}
}

func TestServerInfoCounts(t *testing.T) {
	svc := newTestService()
	reg, err := svc.Register(&request.RegisterRequest{Username: "alice", Avatar: "🦄"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Register(&request.RegisterRequest{Username: "bob", Avatar: "🐻"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.repos.User.UpdateOnlineStatus(reg.User.ID, true); err != nil {
		t.Fatal(err)
	}

	info, err := svc.ServerInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.TotalUsers != 2 || info.Users != 1 {
		t.Fatalf("expected total=2 online=1, got %+v", info)
	}

	users, err := svc.ListUsers()
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 || users[0].Username != "alice" {
		t.Fatalf("unexpected user list: %+v", users)
	}
}
