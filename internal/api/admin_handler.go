package api

import (
	"net/http"
	"strconv"

	"go-repo-hub/internal/service"

	"github.com/gin-gonic/gin"
)

// 处理管理端API请求 路由层已经由RequireAdmin把关
type AdminHandler struct {
	adminService *service.AdminService
}

// 创建新的管理处理器
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// 列出全部用户
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers()
	if err != nil {
		respondError(c, err)
		return
	}

	// 不把密码散列带出API边界
	entries := make([]gin.H, 0, len(users))
	for _, user := range users {
		entries = append(entries, gin.H{
			"id":        user.ID,
			"username":  user.Username,
			"email":     user.Email,
			"role":      user.Role,
			"createdAt": user.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": entries})
}

// 分页列出系统内全部文件
func (h *AdminHandler) ListAllFiles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))

	entries, total, err := h.adminService.ListAllFiles(page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"files": entries,
		"total": total,
		"page":  page,
	})
}
