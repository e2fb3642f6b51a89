package event

import "time"

// 同步事件类型
const (
	FileCreated     = "file.created"
	FileDeleted     = "file.deleted"
	FileSyncUpdated = "file.sync_updated"
)

// Event 文件生命周期/同步状态事件
// 推送给仓库所有者和管理员 JSON编码供前端直接消费
type Event struct {
	Type       string    `json:"type"`
	FileID     string    `json:"fileId"`
	RepoID     string    `json:"repoId"`
	Owner      string    `json:"owner"`
	FileName   string    `json:"fileName"`
	SyncStatus string    `json:"syncStatus,omitempty"`
	At         time.Time `json:"at"`
}
