package repository

import (
	"errors"

	"go-repo-hub/internal/model"
	"go-repo-hub/pkg/db"

	"gorm.io/gorm"
)

// RepoRepository 处理仓库数据持久化
type RepoRepository struct {
	db *gorm.DB
}

// 创建一个新的仓库存储库实例
func NewRepoRepository() *RepoRepository {
	return &RepoRepository{db: db.DB}
}

// 新建仓库
func (r *RepoRepository) Create(repo *model.Repo) error {
	return r.db.Create(repo).Error
}

// 通过ID查找仓库
func (r *RepoRepository) FindByID(id string) (*model.Repo, error) {
	var repo model.Repo
	if err := r.db.Where("id = ?", id).First(&repo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 仓库不存在
		}
		return nil, err
	}
	return &repo, nil
}

// 按所有者+仓库名查找 名称不区分大小写
func (r *RepoRepository) FindByOwnerAndName(owner string, name string) (*model.Repo, error) {
	var repo model.Repo
	err := r.db.Where("owner = ? AND LOWER(name) = LOWER(?)", owner, name).First(&repo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &repo, nil
}

// 列出某个所有者的全部仓库
func (r *RepoRepository) ListByOwner(owner string) ([]model.Repo, error) {
	var repos []model.Repo
	if err := r.db.Where("owner = ?", owner).Order("created_at desc").Find(&repos).Error; err != nil {
		return nil, err
	}
	return repos, nil
}

// 列出全部仓库(管理端)
func (r *RepoRepository) ListAll() ([]model.Repo, error) {
	var repos []model.Repo
	if err := r.db.Order("created_at desc").Find(&repos).Error; err != nil {
		return nil, err
	}
	return repos, nil
}
