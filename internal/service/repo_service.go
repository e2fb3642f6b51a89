package service

import (
	"net/http"
	"strings"
	"time"

	"go-repo-hub/internal/apperr"
	"go-repo-hub/internal/model"
	"go-repo-hub/internal/repository"

	"github.com/google/uuid"
)

// 处理仓库相关业务逻辑
type RepoService struct {
	repoRepo *repository.RepoRepository
}

// 创建一个新的仓库服务实例
func NewRepoService(repoRepo *repository.RepoRepository) *RepoService {
	return &RepoService{
		repoRepo: repoRepo,
	}
}

// 创建仓库请求
type CreateRepoRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
}

// 列出用户的仓库 管理员可以看到全部仓库
func (s *RepoService) ListRepos(user *model.User) ([]model.Repo, error) {
	if user == nil {
		return nil, apperr.New(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required.")
	}

	if user.IsAdmin() {
		return s.repoRepo.ListAll()
	}
	return s.repoRepo.ListByOwner(user.Username)
}

// 创建仓库
// 同一所有者下仓库名唯一 不区分大小写
func (s *RepoService) CreateRepo(user *model.User, req CreateRepoRequest) (*model.Repo, error) {
	if user == nil {
		return nil, apperr.New(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required.")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.New(http.StatusBadRequest, "INVALID_REPO_NAME", "Repository name is required.")
	}

	// 可见性只接受shared 其余一律按private处理
	visibility := model.VisibilityPrivate
	if req.Visibility == model.VisibilityShared {
		visibility = model.VisibilityShared
	}

	duplicate, err := s.repoRepo.FindByOwnerAndName(user.Username, name)
	if err != nil {
		return nil, err
	}
	if duplicate != nil {
		return nil, apperr.New(http.StatusConflict, "REPO_NAME_CONFLICT", "Repository name already exists for this user.")
	}

	now := time.Now()
	repo := &model.Repo{
		ID:          uuid.NewString(),
		Owner:       user.Username,
		Name:        name,
		Description: req.Description,
		Visibility:  visibility,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repoRepo.Create(repo); err != nil {
		return nil, err
	}
	return repo, nil
}

// GetRepoForUser 按ID取仓库并校验访问权
// 文件记录的repoId不由数据库外键保证 所有仓库上下文都必须经过这里
func (s *RepoService) GetRepoForUser(user *model.User, repoID string) (*model.Repo, error) {
	if user == nil {
		return nil, apperr.New(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required.")
	}

	id := strings.TrimSpace(repoID)
	if id == "" {
		return nil, apperr.New(http.StatusBadRequest, "INVALID_REPO_ID", "Repository identifier is required.")
	}

	repo, err := s.repoRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, apperr.New(http.StatusNotFound, "REPO_NOT_FOUND", "Repository not found.")
	}

	if repo.Owner != user.Username && !user.IsAdmin() {
		return nil, apperr.New(http.StatusForbidden, "FORBIDDEN_REPO_ACCESS", "You do not have access to this repository.")
	}

	return repo, nil
}
