package memory

import (
	"testing"

	"vesper_chat_server/internal/model"
	"vesper_chat_server/pkg/errorx"
)

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	repo := NewUserRepository()

	alice := &model.UserInfo{Username: "alice", RawPassword: "secret1"}
	bob := &model.UserInfo{Username: "bob"}
	if err := repo.Create(alice); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(bob); err != nil {
		t.Fatal(err)
	}
	if alice.ID != 1 || bob.ID != 2 {
		t.Fatalf("expected IDs 1 and 2, got %d and %d", alice.ID, bob.ID)
	}
	if bob.Avatar != model.DefaultAvatar {
		t.Fatalf("expected default avatar, got %q", bob.Avatar)
	}
}

func TestCreateRejectsDuplicateUsername(t *testing.T) {
	repo := NewUserRepository()
	if err := repo.Create(&model.UserInfo{Username: "alice"}); err != nil {
		t.Fatal(err)
	}
	err := repo.Create(&model.UserInfo{Username: "alice"})
	if errorx.GetCode(err) != errorx.CodeUserExist {
		t.Fatalf("expected CodeUserExist, got %v", err)
	}
}

func TestPasswordIsHashedOnCreate(t *testing.T) {
	repo := NewUserRepository()
	if err := repo.Create(&model.UserInfo{Username: "alice", RawPassword: "secret1"}); err != nil {
		t.Fatal(err)
	}
	stored, err := repo.FindByUsername("alice")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Password == "" || stored.Password == "secret1" {
		t.Fatalf("expected hashed password, got %q", stored.Password)
	}
	if !stored.CheckPassword("secret1") {
		t.Fatal("expected correct password to verify")
	}
	if stored.CheckPassword("wrong") {
		t.Fatal("expected wrong password to fail")
	}
}

func TestPasswordlessAccountNeverVerifies(t *testing.T) {
	repo := NewUserRepository()
	if err := repo.Create(&model.UserInfo{Username: "ghost"}); err != nil {
		t.Fatal(err)
	}
	stored, err := repo.FindByUsername("ghost")
	if err != nil {
		t.Fatal(err)
	}
	if stored.CheckPassword("") || stored.CheckPassword("anything") {
		t.Fatal("passwordless account must reject all password checks")
	}
}

func TestFindReturnsCopies(t *testing.T) {
	repo := NewUserRepository()
	if err := repo.Create(&model.UserInfo{Username: "alice"}); err != nil {
		t.Fatal(err)
	}
	first, _ := repo.FindByUsername("alice")
	first.Username = "mutated"

	second, err := repo.FindByUsername("alice")
	if err != nil {
		t.Fatal(err)
	}
	if second.Username != "alice" {
		t.Fatal("repository must not expose internal state")
	}
}

func TestOnlineStatusAndCounts(t *testing.T) {
	repo := NewUserRepository()
	alice := &model.UserInfo{Username: "alice"}
	bob := &model.UserInfo{Username: "bob"}
	if err := repo.Create(alice); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(bob); err != nil {
		t.Fatal(err)
	}

	if err := repo.UpdateOnlineStatus(alice.ID, true); err != nil {
		t.Fatal(err)
	}

	total, err := repo.CountAll()
	if err != nil {
		t.Fatal(err)
	}
	online, err := repo.CountOnline()
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || online != 1 {
		t.Fatalf("expected total=2 online=1, got total=%d online=%d", total, online)
	}

	if err := repo.UpdateOnlineStatus(999, true); !errorx.IsNotFound(err) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}
}
