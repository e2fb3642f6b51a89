package api

import (
	"net/http"
	"strconv"

	"go-repo-hub/internal/apperr"
	"go-repo-hub/internal/service"

	"github.com/gin-gonic/gin"
)

// 处理联合检索请求
type SearchHandler struct {
	searchService *service.SearchService
}

// 创建新的检索处理器
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 按当前用户的可见范围检索文件
// 查询参数: q repoId share page pageSize
func (h *SearchHandler) Search(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		respondError(c, apperr.New(http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated"))
		return
	}

	opts := service.SearchOptions{
		RepoID: c.Query("repoId"),
	}

	// share参数缺省表示不过滤
	if raw := c.Query("share"); raw != "" {
		shared := raw == "true"
		opts.Share = &shared
	}
	if raw := c.Query("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil {
			opts.Page = page
		}
	}
	if raw := c.Query("pageSize"); raw != "" {
		if pageSize, err := strconv.Atoi(raw); err == nil {
			opts.PageSize = pageSize
		}
	}

	query := c.Query("q")
	result, err := h.searchService.Search(c.Request.Context(), user, query, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, service.BuildResponse(result, query))
}
