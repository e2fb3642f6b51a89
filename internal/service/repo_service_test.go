package service

import (
	"testing"

	"go-repo-hub/internal/model"
	"go-repo-hub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoService() *RepoService {
	return NewRepoService(repository.NewRepoRepository())
}

func TestRepoService_CreateRepo(t *testing.T) {
	setupTestServices(t)
	alice := seedUser(t, "alice", model.RoleUser)
	svc := newRepoService()

	repo, err := svc.CreateRepo(alice, CreateRepoRequest{Name: "  notes  ", Description: "d", Visibility: "bogus"})
	require.NoError(t, err)

	// 名称去掉首尾空白 非法的可见性回落为private
	assert.Equal(t, "notes", repo.Name)
	assert.Equal(t, model.VisibilityPrivate, repo.Visibility)
	assert.Equal(t, "alice", repo.Owner)
	assert.NotEmpty(t, repo.ID)
}

func TestRepoService_CreateRepoNameConflict(t *testing.T) {
	setupTestServices(t)
	alice := seedUser(t, "alice", model.RoleUser)
	bob := seedUser(t, "bob", model.RoleUser)
	svc := newRepoService()

	_, err := svc.CreateRepo(alice, CreateRepoRequest{Name: "Notes"})
	require.NoError(t, err)

	// 同一所有者下不区分大小写的重名冲突
	_, err = svc.CreateRepo(alice, CreateRepoRequest{Name: "nOtEs"})
	requireAppError(t, err, 409, "REPO_NAME_CONFLICT")

	// 不同所有者可以重名
	_, err = svc.CreateRepo(bob, CreateRepoRequest{Name: "notes"})
	require.NoError(t, err)
}

func TestRepoService_CreateRepoValidation(t *testing.T) {
	setupTestServices(t)
	alice := seedUser(t, "alice", model.RoleUser)
	svc := newRepoService()

	_, err := svc.CreateRepo(alice, CreateRepoRequest{Name: "   "})
	requireAppError(t, err, 400, "INVALID_REPO_NAME")

	_, err = svc.CreateRepo(nil, CreateRepoRequest{Name: "notes"})
	requireAppError(t, err, 401, "UNAUTHORIZED")
}

func TestRepoService_GetRepoForUser(t *testing.T) {
	setupTestServices(t)
	alice := seedUser(t, "alice", model.RoleUser)
	bob := seedUser(t, "bob", model.RoleUser)
	admin := seedUser(t, "root", model.RoleAdmin)
	svc := newRepoService()

	repo, err := svc.CreateRepo(alice, CreateRepoRequest{Name: "notes"})
	require.NoError(t, err)

	// 所有者可以访问
	found, err := svc.GetRepoForUser(alice, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.ID, found.ID)

	// 非所有者403
	_, err = svc.GetRepoForUser(bob, repo.ID)
	requireAppError(t, err, 403, "FORBIDDEN_REPO_ACCESS")

	// 管理员放行
	_, err = svc.GetRepoForUser(admin, repo.ID)
	require.NoError(t, err)

	// 不存在404
	_, err = svc.GetRepoForUser(alice, "missing")
	requireAppError(t, err, 404, "REPO_NOT_FOUND")

	// 空ID 400
	_, err = svc.GetRepoForUser(alice, "  ")
	requireAppError(t, err, 400, "INVALID_REPO_ID")
}

func TestRepoService_ListRepos(t *testing.T) {
	setupTestServices(t)
	alice := seedUser(t, "alice", model.RoleUser)
	bob := seedUser(t, "bob", model.RoleUser)
	admin := seedUser(t, "root", model.RoleAdmin)
	svc := newRepoService()

	_, err := svc.CreateRepo(alice, CreateRepoRequest{Name: "notes"})
	require.NoError(t, err)
	_, err = svc.CreateRepo(bob, CreateRepoRequest{Name: "misc"})
	require.NoError(t, err)

	repos, err := svc.ListRepos(alice)
	require.NoError(t, err)
	assert.Len(t, repos, 1)

	// 管理员看到全部
	repos, err = svc.ListRepos(admin)
	require.NoError(t, err)
	assert.Len(t, repos, 2)
}
