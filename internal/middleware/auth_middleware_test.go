package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-repo-hub/internal/model"
	"go-repo-hub/internal/repository"
	"go-repo-hub/pkg/config"
	"go-repo-hub/pkg/db"
	"go-repo-hub/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	if err := config.InitTest(); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}

	if err := db.InitDB(); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	cleanupUserTable(t)
	t.Cleanup(func() { cleanupUserTable(t) })
}

func setupTestUser(t *testing.T, role string) (*model.User, string) {
	userRepo := repository.NewUserRepository()

	user := &model.User{
		Username: "testuser-" + role,
		Email:    role + "@example.com",
		Password: "password123",
		Role:     role,
	}
	if err := userRepo.Create(user); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	return user, token
}

func TestAuthMiddleware(t *testing.T) {
	setupTestDB(t)
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		setupAuth  func(*http.Request)
		wantStatus int
	}{
		{
			name: "Valid token",
			setupAuth: func(r *http.Request) {
				_, token := setupTestUser(t, model.RoleUser)
				r.Header.Set("Authorization", "Bearer "+token)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "Token via query parameter",
			setupAuth: func(r *http.Request) {
				_, token := setupTestUser(t, model.RoleAdmin)
				q := r.URL.Query()
				q.Set("token", token)
				r.URL.RawQuery = q.Encode()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "Missing auth header",
			setupAuth: func(r *http.Request) {
				// Don't set any auth header
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "Invalid auth format",
			setupAuth: func(r *http.Request) {
				r.Header.Set("Authorization", "InvalidFormat token")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "Invalid token",
			setupAuth: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer invalid.token.here")
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanupUserTable(t)

			r := gin.New()
			r.Use(AuthMiddleware())
			r.GET("/test", func(c *gin.Context) {
				username, exists := c.Get("username")
				if !exists {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "username not set"})
					return
				}
				c.JSON(http.StatusOK, gin.H{"username": username})
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/test", nil)
			tt.setupAuth(req)

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, w.Body.String(), "username")
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	setupTestDB(t)
	gin.SetMode(gin.TestMode)

	_, userToken := setupTestUser(t, model.RoleUser)
	_, adminToken := setupTestUser(t, model.RoleAdmin)

	r := gin.New()
	r.Use(AuthMiddleware())
	admin := r.Group("/admin", RequireAdmin())
	admin.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// 普通用户被拒
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "FORBIDDEN")

	// 管理员放行
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// 帮助函数：清空 users 表中的所有数据
func cleanupUserTable(t *testing.T) {
	if err := db.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&model.User{}).Error; err != nil {
		t.Logf("Failed to cleanup users table: %v", err)
	}
}
