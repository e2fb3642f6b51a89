package repository

import (
	"testing"

	"go-repo-hub/internal/model"
	"go-repo-hub/pkg/config"
	"go-repo-hub/pkg/db"
	"go-repo-hub/pkg/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestUsers initializes config/logger/DB and cleans the users table.
func setupTestUsers(t *testing.T) *UserRepository {
	if err := config.InitTest(); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}
	if logger.L == nil {
		if err := logger.InitLogger(config.GlobalConfig.Log.Level, config.GlobalConfig.Log.ProductionMode); err != nil {
			t.Logf("Logger init failed (using default): %v", err)
		}
	}
	err := db.InitDB()
	require.NoError(t, err, "Failed to connect to test database")

	t.Cleanup(func() { cleanupUserTable(t) })
	cleanupUserTable(t)

	return NewUserRepository()
}

func TestUserRepository_Create(t *testing.T) {
	repo := setupTestUsers(t)

	user := &model.User{
		Username: "testuser",
		Password: "testpass",
		Email:    "test@example.com",
		Role:     model.RoleUser,
	}

	if err := repo.Create(user); err != nil {
		t.Errorf("Create() error = %v", err)
	}

	// 验证用户是否被正确创建
	found, err := repo.FindByUsername("testuser")
	if err != nil {
		t.Errorf("FindByUsername() error = %v", err)
	}
	if found == nil {
		t.Error("Expected to find created user, got nil")
		return
	}
	if found.Email != user.Email {
		t.Errorf("Expected email %v, got %v", user.Email, found.Email)
	}
}

func TestUserRepository_FindByUsername(t *testing.T) {
	repo := setupTestUsers(t)

	// 测试查找不存在的用户
	user, err := repo.FindByUsername("nonexistent")
	if err != nil {
		t.Errorf("FindByUsername() error = %v", err)
	}
	if user != nil {
		t.Error("Expected nil for non-existent user, got user")
	}

	testUser := &model.User{
		Username: "finduser",
		Email:    "find@example.com",
		Role:     model.RoleUser,
	}
	if err := repo.Create(testUser); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	found, err := repo.FindByUsername("finduser")
	if err != nil {
		t.Errorf("FindByUsername() error = %v", err)
	}
	if found == nil {
		t.Error("Expected to find user, got nil")
		return
	}
	if found.Username != testUser.Username {
		t.Errorf("Expected username %v, got %v", testUser.Username, found.Username)
	}
}

func TestUserRepository_FindAll(t *testing.T) {
	repo := setupTestUsers(t)

	for _, u := range []model.User{
		{Username: "user1", Email: "u1@example.com", Role: model.RoleUser},
		{Username: "user2", Email: "u2@example.com", Role: model.RoleAdmin},
	} {
		user := u
		if err := repo.Create(&user); err != nil {
			t.Fatalf("Failed to create test user: %v", err)
		}
	}

	users, err := repo.FindAll()
	if err != nil {
		t.Errorf("FindAll() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("Expected 2 users, got %d", len(users))
	}
}

// 帮助函数：清空 users 表中的所有数据
func cleanupUserTable(t *testing.T) {
	if err := db.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&model.User{}).Error; err != nil {
		t.Logf("Failed to cleanup users table: %v", err)
	}
}
