package api

import (
	"net/http"

	"go-repo-hub/internal/apperr"
	"go-repo-hub/internal/service"

	"github.com/gin-gonic/gin"
)

// 处理仓库相关的API请求
type RepoHandler struct {
	repoService *service.RepoService
}

// 创建新的仓库处理器
func NewRepoHandler(repoService *service.RepoService) *RepoHandler {
	return &RepoHandler{repoService: repoService}
}

// 列出当前用户可管理的仓库 管理员能看到全部
func (h *RepoHandler) ListRepos(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		respondError(c, apperr.New(http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated"))
		return
	}

	repos, err := h.repoService.ListRepos(user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"repos": repos})
}

// 创建仓库
func (h *RepoHandler) CreateRepo(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		respondError(c, apperr.New(http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated"))
		return
	}

	var req service.CreateRepoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "INVALID_REQUEST", "message": err.Error()},
		})
		return
	}

	repo, err := h.repoService.CreateRepo(user, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"repo": repo})
}

// 获取单个仓库 所有权检查在service层
func (h *RepoHandler) GetRepo(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		respondError(c, apperr.New(http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated"))
		return
	}

	repo, err := h.repoService.GetRepoForUser(user, c.Param("repoId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"repo": repo})
}
