package service

import (
	"testing"

	"go-repo-hub/internal/model"
	"go-repo-hub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register(t *testing.T) {
	setupTestServices(t)
	service := NewAuthService(repository.NewUserRepository())

	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{
			name: "Valid registration",
			req: RegisterRequest{
				Username: "testuser",
				Password: "password123",
				Email:    "test@example.com",
			},
			wantErr: false,
		},
		{
			name: "Duplicate username",
			req: RegisterRequest{
				Username: "testuser",
				Password: "password123",
				Email:    "another@example.com",
			},
			wantErr: true,
		},
		{
			name: "Duplicate email",
			req: RegisterRequest{
				Username: "anotheruser",
				Password: "password123",
				Email:    "test@example.com",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := service.Register(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				// 新用户默认普通角色 密码不落明文
				assert.Equal(t, model.RoleUser, user.Role)
				assert.NotEqual(t, tt.req.Password, user.Password)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	setupTestServices(t)
	service := NewAuthService(repository.NewUserRepository())

	_, err := service.Register(RegisterRequest{
		Username: "loginuser",
		Password: "password123",
		Email:    "login@example.com",
	})
	require.NoError(t, err)

	// 正确的凭据
	token, user, err := service.Login(LoginRequest{Username: "loginuser", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "loginuser", user.Username)

	// 错误的密码
	_, _, err = service.Login(LoginRequest{Username: "loginuser", Password: "wrong"})
	requireAppError(t, err, 401, "INVALID_CREDENTIALS")

	// 不存在的用户
	_, _, err = service.Login(LoginRequest{Username: "ghost", Password: "password123"})
	requireAppError(t, err, 401, "INVALID_CREDENTIALS")
}
