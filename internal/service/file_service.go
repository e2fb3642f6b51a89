package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-repo-hub/internal/apperr"
	"go-repo-hub/internal/event"
	"go-repo-hub/internal/interfaces"
	"go-repo-hub/internal/model"
	"go-repo-hub/internal/repository"
	"go-repo-hub/pkg/config"
	"go-repo-hub/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileService 文件元数据与远程知识库之间的同步管线
// 本地写入和远程同步是两个独立的承诺:
// 本地变更永远先于远程调用 远程调用的结果也绝不回滚本地变更
type FileService struct {
	fileRepo *repository.FileRepository
	kb       interfaces.KBClient
	notifier interfaces.EventNotifier
	basePath string
}

// 创建新的文件服务
// notifier可以为nil 此时不发同步事件
func NewFileService(fileRepo *repository.FileRepository, kb interfaces.KBClient, notifier interfaces.EventNotifier) (*FileService, error) {
	// 从配置中获取存储路径 或使用默认值
	basePath := "uploads"
	if config.GlobalConfig.File.StoragePath != "" {
		basePath = config.GlobalConfig.File.StoragePath
	}

	// 确保目录存在
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &FileService{
		fileRepo: fileRepo,
		kb:       kb,
		notifier: notifier,
		basePath: basePath,
	}, nil
}

// UploadFile 保存文件并尽力同步到远程知识库
// 流程: 落盘 -> 写入本地记录(先持久化) -> 远程上传 -> 更新同步状态
// 远程上传失败时本地记录保留为failed 并向调用方返回502
func (s *FileService) UploadFile(repo *model.Repo, user *model.User, fileHeader *multipart.FileHeader, share bool) (*model.File, error) {
	if repo == nil {
		return nil, apperr.New(http.StatusInternalServerError, "INTERNAL_ERROR", "Repository context is required for uploads.")
	}
	if user == nil {
		return nil, apperr.New(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required.")
	}
	if fileHeader == nil {
		return nil, apperr.New(http.StatusBadRequest, "FILE_REQUIRED", "A file must be provided for upload.")
	}

	storagePath, err := s.storeFile(repo, fileHeader)
	if err != nil {
		return nil, err
	}

	syncStatus := model.SyncSkipped
	if s.kb.Configured() {
		syncStatus = model.SyncPending
	}

	file := &model.File{
		ID:             uuid.NewString(),
		RepoID:         repo.ID,
		UploaderID:     user.Username,
		Name:           fileHeader.Filename,
		Size:           fileHeader.Size,
		Mime:           determineMime(fileHeader),
		Share:          share,
		StoragePath:    storagePath,
		DifySyncStatus: syncStatus,
		CreatedAt:      time.Now(),
	}

	// 本地记录必须先持久化 远程故障不能丢失本地状态
	if err := s.fileRepo.Create(file); err != nil {
		return nil, fmt.Errorf("failed to persist file metadata: %w", err)
	}

	s.emit(event.FileCreated, file, repo.Owner)

	if syncStatus != model.SyncPending {
		logger.L.Info("File stored, remote indexing disabled",
			zap.String("fileID", file.ID), zap.String("name", file.Name))
		return file, nil
	}

	docID, err := s.kb.Upload(file.StoragePath, file.Name)
	if err != nil {
		// 终态只写一次 失败后不自动重试
		file.DifySyncStatus = model.SyncFailed
		file.DifySyncError = err.Error()
		if updateErr := s.fileRepo.UpdateSyncState(file.ID, model.SyncFailed, nil, file.DifySyncError); updateErr != nil {
			logger.L.Error("Failed to record sync failure", zap.String("fileID", file.ID), zap.Error(updateErr))
		}
		s.emit(event.FileSyncUpdated, file, repo.Owner)

		logger.L.Error("Dify upload failed",
			zap.String("fileID", file.ID), zap.String("name", file.Name), zap.Error(err))
		return nil, apperr.Wrap(http.StatusBadGateway, "DIFY_UPLOAD_FAILED", "Failed to sync file with Dify.", err)
	}

	file.DifyDocID = &docID
	file.DifySyncStatus = model.SyncSucceeded
	if err := s.fileRepo.UpdateSyncState(file.ID, model.SyncSucceeded, &docID, ""); err != nil {
		logger.L.Error("Failed to record sync success", zap.String("fileID", file.ID), zap.Error(err))
	}
	s.emit(event.FileSyncUpdated, file, repo.Owner)

	logger.L.Info("File stored and synced",
		zap.String("fileID", file.ID),
		zap.String("name", file.Name),
		zap.Int64("size", file.Size),
		zap.String("difyDocID", docID))

	// 索引进度查询仅作参考 在上传结果确定之后异步触发
	// 任何失败只记日志 不改变同步状态 也不影响调用方
	go s.refreshIndexingStatus(file.ID, docID)

	return file, nil
}

func (s *FileService) refreshIndexingStatus(fileID string, docID string) {
	status, found, err := s.kb.CheckIndexingStatus(docID)
	if err != nil {
		logger.L.Warn("Dify indexing-status refresh failed",
			zap.String("fileID", fileID), zap.String("difyDocID", docID), zap.Error(err))
		return
	}
	if !found {
		logger.L.Warn("Dify document missing during refresh",
			zap.String("fileID", fileID), zap.String("difyDocID", docID))
		return
	}
	logger.L.Info("Dify indexing status",
		zap.String("fileID", fileID), zap.String("status", status))
}

// DeleteFile 删除文件 本地删除是权威动作
// 字节和记录先删 远程文档随后尽力删除 远程失败只记警告
func (s *FileService) DeleteFile(repo *model.Repo, fileID string) (*model.File, error) {
	if repo == nil {
		return nil, apperr.New(http.StatusBadRequest, "REPO_REQUIRED", "Repository context is required to delete files.")
	}
	if fileID == "" {
		return nil, apperr.New(http.StatusBadRequest, "FILE_ID_REQUIRED", "File identifier is required.")
	}

	file, err := s.fileRepo.FindByID(fileID)
	if err != nil {
		return nil, err
	}
	if file == nil || file.RepoID != repo.ID {
		return nil, apperr.New(http.StatusNotFound, "FILE_NOT_FOUND", "File not found in this repository.")
	}

	// 磁盘上的字节可能已经不在了 容忍缺失
	if err := os.Remove(file.StoragePath); err != nil && !os.IsNotExist(err) {
		logger.L.Warn("Failed to remove file from disk",
			zap.String("fileID", file.ID), zap.String("path", file.StoragePath), zap.Error(err))
	}

	if err := s.fileRepo.Delete(file.ID); err != nil {
		return nil, fmt.Errorf("failed to delete file metadata: %w", err)
	}

	s.emit(event.FileDeleted, file, repo.Owner)

	// 远程镜像删除在本地结果确定之后异步触发 幂等且尽力而为
	if file.DifyDocID != nil && s.kb.Configured() {
		docID := *file.DifyDocID
		go func() {
			if _, err := s.kb.Delete(docID); err != nil {
				logger.L.Warn("Failed to remove Dify document",
					zap.String("fileID", file.ID), zap.String("difyDocID", docID), zap.Error(err))
			}
		}()
	}

	return file, nil
}

// 列出仓库内的文件 最新的排前面
func (s *FileService) ListFiles(repoID string) ([]model.File, error) {
	return s.fileRepo.ListByRepo(repoID)
}

// GetFile 查找仓库内的单个文件 挂错仓库视同不存在
func (s *FileService) GetFile(repo *model.Repo, fileID string) (*model.File, error) {
	if repo == nil {
		return nil, apperr.New(http.StatusBadRequest, "REPO_REQUIRED", "Repository context is required.")
	}
	if fileID == "" {
		return nil, apperr.New(http.StatusBadRequest, "FILE_ID_REQUIRED", "File identifier is required.")
	}

	file, err := s.fileRepo.FindByID(fileID)
	if err != nil {
		return nil, err
	}
	if file == nil || file.RepoID != repo.ID {
		return nil, apperr.New(http.StatusNotFound, "FILE_NOT_FOUND", "File not found in this repository.")
	}
	return file, nil
}

func (s *FileService) emit(eventType string, file *model.File, owner string) {
	if s.notifier == nil {
		return
	}
	ev := &event.Event{
		Type:       eventType,
		FileID:     file.ID,
		RepoID:     file.RepoID,
		Owner:      owner,
		FileName:   file.Name,
		SyncStatus: file.DifySyncStatus,
		At:         time.Now(),
	}
	if err := s.notifier.Notify(ev); err != nil {
		logger.L.Warn("Failed to publish sync event",
			zap.String("type", eventType), zap.String("fileID", file.ID), zap.Error(err))
	}
}

// 把上传内容落盘 返回存储路径
func (s *FileService) storeFile(repo *model.Repo, fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	// 创建仓库文件目录
	repoPath := filepath.Join(s.basePath, fmt.Sprintf("repo_%s", repo.ID))
	if err := os.MkdirAll(repoPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create repo storage directory: %w", err)
	}

	// 净化原始文件名 前缀随机ID保证唯一
	safeName := strings.ReplaceAll(fileHeader.Filename, "/", "_")
	safeName = strings.ReplaceAll(safeName, " ", "_")
	storagePath := filepath.Join(repoPath, fmt.Sprintf("%s_%s", uuid.NewString()[:8], safeName))

	dst, err := os.Create(storagePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return storagePath, nil
}

// 确定文件的MIME类型 优先取请求头 退回按扩展名推断
func determineMime(fileHeader *multipart.FileHeader) string {
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return mimeFromExt(filepath.Ext(fileHeader.Filename))
}

func mimeFromExt(fileExt string) string {
	mimeType := "application/octet-stream" // 默认类型
	switch strings.ToLower(fileExt) {
	case ".jpg", ".jpeg":
		mimeType = "image/jpeg"
	case ".png":
		mimeType = "image/png"
	case ".gif":
		mimeType = "image/gif"
	case ".pdf":
		mimeType = "application/pdf"
	case ".doc", ".docx":
		mimeType = "application/msword"
	case ".xls", ".xlsx":
		mimeType = "application/vnd.ms-excel"
	case ".md":
		mimeType = "text/markdown"
	case ".txt":
		mimeType = "text/plain"
	}
	return mimeType
}
