package api

import (
	"fmt"
	"net/http"
	"strconv"

	"go-repo-hub/internal/apperr"
	"go-repo-hub/internal/service"
	"go-repo-hub/pkg/config"
	"go-repo-hub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 处理仓库文件相关的API请求
type FileHandler struct {
	fileService *service.FileService
	repoService *service.RepoService
}

// 创建新的文件处理器
func NewFileHandler(fileService *service.FileService, repoService *service.RepoService) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		repoService: repoService,
	}
}

// 上传文件到仓库 本地写入成功后同步到知识库
func (h *FileHandler) UploadFile(c *gin.Context) {
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

	// 从表单数据中获取文件
	fileHeader, err := c.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to get file from request", zap.Error(err))
		respondError(c, apperr.New(http.StatusBadRequest, "FILE_REQUIRED", "missing or invalid file"))
		return
	}

	// 检查文件大小限制
	maxSize := int64(50 * 1024 * 1024) // 默认50MB
	if config.GlobalConfig.File.MaxFileSize > 0 {
		maxSize = config.GlobalConfig.File.MaxFileSize
	}
	if fileHeader.Size > maxSize {
		respondError(c, apperr.New(http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("file too large, max size is %d MB", maxSize/1024/1024)))
		return
	}

	share := c.PostForm("share") == "true"

	file, err := h.fileService.UploadFile(repo, user, fileHeader, share)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"file": file})
}

// 列出仓库内的文件
func (h *FileHandler) ListFiles(c *gin.Context) {
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

	files, err := h.fileService.ListFiles(repo.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// 删除仓库内的文件 远端文档的清理尽力而为
func (h *FileHandler) DeleteFile(c *gin.Context) {
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

	deleted, err := h.fileService.DeleteFile(repo, c.Param("fileId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File deleted",
		"file":    gin.H{"id": deleted.ID, "name": deleted.Name},
	})
}

// 下载仓库内的文件
func (h *FileHandler) DownloadFile(c *gin.Context) {
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

	file, err := h.fileService.GetFile(repo, c.Param("fileId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(file.Name))
	c.Header("Content-Type", file.Mime)
	c.Header("Content-Length", strconv.FormatInt(file.Size, 10))
	c.File(file.StoragePath)
}
