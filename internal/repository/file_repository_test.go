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

// setupTestFiles initializes DB and cleans the files table.
func setupTestFiles(t *testing.T) *FileRepository {
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

	t.Cleanup(func() { cleanupFileTable(t) })
	cleanupFileTable(t)

	return NewFileRepository()
}

func newTestFile(repoID string, name string, createdAt time.Time) *model.File {
	return &model.File{
		ID:             uuid.NewString(),
		RepoID:         repoID,
		UploaderID:     "alice",
		Name:           name,
		Size:           42,
		Mime:           "text/plain",
		StoragePath:    "uploads/repo_x/" + name,
		DifySyncStatus: model.SyncSkipped,
		CreatedAt:      createdAt,
	}
}

func TestFileRepository_CreateAndFind(t *testing.T) {
	fileRepo := setupTestFiles(t)

	file := newTestFile("repo-1", "a.txt", time.Now())
	require.NoError(t, fileRepo.Create(file))

	found, err := fileRepo.FindByID(file.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a.txt", found.Name)
	assert.Equal(t, model.SyncSkipped, found.DifySyncStatus)
	assert.Nil(t, found.DifyDocID)

	// 不存在的ID返回nil
	found, err = fileRepo.FindByID("missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFileRepository_ListByRepo(t *testing.T) {
	fileRepo := setupTestFiles(t)

	base := time.Now()
	require.NoError(t, fileRepo.Create(newTestFile("repo-1", "old.txt", base.Add(-time.Hour))))
	require.NoError(t, fileRepo.Create(newTestFile("repo-1", "new.txt", base)))
	require.NoError(t, fileRepo.Create(newTestFile("repo-2", "other.txt", base)))

	files, err := fileRepo.ListByRepo("repo-1")
	require.NoError(t, err)
	require.Len(t, files, 2)

	// 最新的文件排前面
	assert.Equal(t, "new.txt", files[0].Name)
	assert.Equal(t, "old.txt", files[1].Name)
}

func TestFileRepository_UpdateSyncState(t *testing.T) {
	fileRepo := setupTestFiles(t)

	file := newTestFile("repo-1", "a.txt", time.Now())
	file.DifySyncStatus = model.SyncPending
	require.NoError(t, fileRepo.Create(file))

	docID := "doc-1"
	require.NoError(t, fileRepo.UpdateSyncState(file.ID, model.SyncSucceeded, &docID, ""))

	found, err := fileRepo.FindByID(file.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.SyncSucceeded, found.DifySyncStatus)
	require.NotNil(t, found.DifyDocID)
	assert.Equal(t, "doc-1", *found.DifyDocID)
}

func TestFileRepository_UpdateSyncStateFailed(t *testing.T) {
	fileRepo := setupTestFiles(t)

	file := newTestFile("repo-1", "a.txt", time.Now())
	file.DifySyncStatus = model.SyncPending
	require.NoError(t, fileRepo.Create(file))

	// 失败时不写docID 只记录错误信息
	require.NoError(t, fileRepo.UpdateSyncState(file.ID, model.SyncFailed, nil, "upstream 500"))

	found, err := fileRepo.FindByID(file.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.SyncFailed, found.DifySyncStatus)
	assert.Nil(t, found.DifyDocID)
	assert.Equal(t, "upstream 500", found.DifySyncError)
}

func TestFileRepository_Delete(t *testing.T) {
	fileRepo := setupTestFiles(t)

	file := newTestFile("repo-1", "a.txt", time.Now())
	require.NoError(t, fileRepo.Create(file))
	require.NoError(t, fileRepo.Delete(file.ID))

	found, err := fileRepo.FindByID(file.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFileRepository_ListAllPaged(t *testing.T) {
	fileRepo := setupTestFiles(t)

	base := time.Now()
	for i := 0; i < 5; i++ {
		f := newTestFile("repo-1", "f.txt", base.Add(time.Duration(-i)*time.Minute))
		require.NoError(t, fileRepo.Create(f))
	}

	files, total, err := fileRepo.ListAllPaged(0, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, files, 3)

	files, total, err = fileRepo.ListAllPaged(3, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, files, 2)
}

// 帮助函数：清空 files 表中的所有数据
func cleanupFileTable(t *testing.T) {
	if err := db.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&model.File{}).Error; err != nil {
		t.Logf("Failed to cleanup files table: %v", err)
	}
}
