package repository

import (
	"errors"

	"go-repo-hub/internal/model"
	"go-repo-hub/pkg/db"

	"gorm.io/gorm"
)

// FileRepository 处理文件元数据持久化
type FileRepository struct {
	db *gorm.DB
}

// 创建一个新的文件存储库实例
func NewFileRepository() *FileRepository {
	return &FileRepository{db: db.DB}
}

// 新建文件记录
func (r *FileRepository) Create(file *model.File) error {
	return r.db.Create(file).Error
}

// 通过ID查找文件
func (r *FileRepository) FindByID(id string) (*model.File, error) {
	var file model.File
	if err := r.db.Where("id = ?", id).First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 文件不存在
		}
		return nil, err
	}
	return &file, nil
}

// 列出仓库内的文件 最新的排前面
func (r *FileRepository) ListByRepo(repoID string) ([]model.File, error) {
	var files []model.File
	if err := r.db.Where("repo_id = ?", repoID).Order("created_at desc").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

// 列出全部文件记录 本地检索时需要全量扫描
func (r *FileRepository) ListAll() ([]model.File, error) {
	var files []model.File
	if err := r.db.Order("created_at desc").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

// 分页列出全部文件(管理端)
func (r *FileRepository) ListAllPaged(offset int, limit int) ([]model.File, int64, error) {
	var total int64
	if err := r.db.Model(&model.File{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var files []model.File
	if err := r.db.Order("created_at desc").Offset(offset).Limit(limit).Find(&files).Error; err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

// UpdateSyncState 更新文件的Dify同步状态
// docID只在同步成功时写入 一经写入不再变更
func (r *FileRepository) UpdateSyncState(id string, status string, docID *string, syncErr string) error {
	updates := map[string]interface{}{
		"dify_sync_status": status,
		"dify_sync_error":  syncErr,
	}
	if docID != nil {
		updates["dify_doc_id"] = *docID
	}
	return r.db.Model(&model.File{}).Where("id = ?", id).Updates(updates).Error
}

// 删除文件记录
func (r *FileRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.File{}).Error
}
