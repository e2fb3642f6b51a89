package repository

import (
	"testing"
	"time"

	"go-repo-hub/internal/model"
	"go-repo-hub/pkg/config"
	"go-repo-hub/pkg/db"
	"go-repo-hub/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestRepos initializes DB and cleans the repos table.
func setupTestRepos(t *testing.T) *RepoRepository {
	if err := config.InitTest(); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}
	if logger.L == nil {
		if err := logger.InitLogger(config.GlobalConfig.Log.Level, config.GlobalConfig.Log.ProductionMode); err != nil {
			t.Logf("Logger init failed (using default): %v", err)
		}
	}
	err := db.InitDB()
	require.NoError(t, err, "Failed to connect to test database")

	t.Cleanup(func() { cleanupRepoTable(t) })
	cleanupRepoTable(t)

	return NewRepoRepository()
}

func newTestRepo(owner string, name string) *model.Repo {
	now := time.Now()
	return &model.Repo{
		ID:         uuid.NewString(),
		Owner:      owner,
		Name:       name,
		Visibility: model.VisibilityPrivate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestRepoRepository_Create(t *testing.T) {
	repoRepo := setupTestRepos(t)

	repo := newTestRepo("alice", "notes")
	require.NoError(t, repoRepo.Create(repo))

	found, err := repoRepo.FindByID(repo.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "alice", found.Owner)
	assert.Equal(t, "notes", found.Name)
}

func TestRepoRepository_FindByOwnerAndName(t *testing.T) {
	repoRepo := setupTestRepos(t)

	require.NoError(t, repoRepo.Create(newTestRepo("alice", "Notes")))

	// 名称匹配不区分大小写
	found, err := repoRepo.FindByOwnerAndName("alice", "nOtEs")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Notes", found.Name)

	// 其他所有者的同名仓库不算冲突
	found, err = repoRepo.FindByOwnerAndName("bob", "notes")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepoRepository_ListByOwner(t *testing.T) {
	repoRepo := setupTestRepos(t)

	require.NoError(t, repoRepo.Create(newTestRepo("alice", "notes")))
	require.NoError(t, repoRepo.Create(newTestRepo("alice", "papers")))
	require.NoError(t, repoRepo.Create(newTestRepo("bob", "misc")))

	repos, err := repoRepo.ListByOwner("alice")
	require.NoError(t, err)
	assert.Len(t, repos, 2)

	repos, err = repoRepo.ListByOwner("carol")
	require.NoError(t, err)
	assert.Empty(t, repos)
}

// 帮助函数：清空 repos 表中的所有数据
func cleanupRepoTable(t *testing.T) {
	if err := db.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&model.Repo{}).Error; err != nil {
		t.Logf("Failed to cleanup repos table: %v", err)
	}
}
