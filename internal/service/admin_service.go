package service

import (
	"go-repo-hub/internal/model"
	"go-repo-hub/internal/repository"
)

// 管理端业务逻辑
type AdminService struct {
	userRepo *repository.UserRepository
	fileRepo *repository.FileRepository
	repoRepo *repository.RepoRepository
}

// 创建一个新的管理服务实例
func NewAdminService(userRepo *repository.UserRepository, fileRepo *repository.FileRepository, repoRepo *repository.RepoRepository) *AdminService {
	return &AdminService{
		userRepo: userRepo,
		fileRepo: fileRepo,
		repoRepo: repoRepo,
	}
}

// AdminFileEntry 管理端文件列表条目 附带仓库信息
type AdminFileEntry struct {
	model.File
	RepoName  string `json:"repoName"`
	RepoOwner string `json:"repoOwner"`
}

// 列出全部用户
func (s *AdminService) ListUsers() ([]model.User, error) {
	return s.userRepo.FindAll()
}

// 分页列出全部文件 附带所属仓库的名称和所有者
func (s *AdminService) ListAllFiles(page int, pageSize int) ([]AdminFileEntry, int64, error) {
	page = normalizePage(page)
	pageSize = normalizePageSize(pageSize)

	files, total, err := s.fileRepo.ListAllPaged((page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}

	repos, err := s.repoRepo.ListAll()
	if err != nil {
		return nil, 0, err
	}
	repoIndex := make(map[string]*model.Repo, len(repos))
	for i := range repos {
		repoIndex[repos[i].ID] = &repos[i]
	}

	entries := make([]AdminFileEntry, 0, len(files))
	for _, file := range files {
		entry := AdminFileEntry{File: file}
		if repo, ok := repoIndex[file.RepoID]; ok {
			entry.RepoName = repo.Name
			entry.RepoOwner = repo.Owner
		}
		entries = append(entries, entry)
	}
	return entries, total, nil
}
