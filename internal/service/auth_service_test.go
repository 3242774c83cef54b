package service

import (
	"testing"
	"time"

	"sft-go/internal/config"
	"sft-go/internal/dto"
	"sft-go/internal/repository"
	"sft-go/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	jwtManager := utils.NewJWTManager("test-secret", "HS256", time.Hour)
	cfg := &config.Config{
		Admin: config.AdminConfig{
			Username: "admin",
			Password: "admin-pass",
		},
	}
	return NewAuthService(userRepo, jwtManager, cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)

	user, err := svc.Register(&dto.RegisterRequest{Username: "alice_01", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "alice_01", user.Username)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	resp, err := svc.Login(&dto.LoginRequest{Username: "alice_01", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotEmpty(t, resp.User.CreatedAt)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Username: "alice_01", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Register(&dto.RegisterRequest{Username: "alice_01", Password: "another123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "已存在")
}

func TestRegisterInvalidUsername(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Username: "bad name!", Password: "secret123"})
	assert.Error(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Username: "alice_01", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Login(&dto.LoginRequest{Username: "alice_01", Password: "wrong"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "用户名或密码错误")
}

func TestInitAdmin(t *testing.T) {
	svc := newAuthService(t)

	require.NoError(t, svc.InitAdmin())

	resp, err := svc.Login(&dto.LoginRequest{Username: "admin", Password: "admin-pass"})
	require.NoError(t, err)
	assert.True(t, resp.User.IsAdmin)

	// 重复初始化不报错也不重复创建
	require.NoError(t, svc.InitAdmin())
}
