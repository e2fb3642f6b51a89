package model

import (
	"time"
)

// Dify同步状态
// skipped: 未配置远程索引
// pending: 上传进行中
// succeeded/failed: 终态 每次上传只写入一次 不自动重试
const (
	SyncSkipped   = "skipped"
	SyncPending   = "pending"
	SyncSucceeded = "succeeded"
	SyncFailed    = "failed"
)

// File 仓库中的文件元数据
// DifyDocID是文件与远程知识库文档之间唯一的关联键
// 每个文件最多设置一次 删除后不复用
type File struct {
	ID             string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	RepoID         string  `gorm:"type:varchar(36);not null;index" json:"repoId"`
	UploaderID     string  `gorm:"type:varchar(30);not null" json:"uploaderId"`
	Name           string  `gorm:"type:varchar(255);not null" json:"name"`
	Size           int64   `gorm:"not null" json:"size"`
	Mime           string  `gorm:"type:varchar(100)" json:"mime"`
	Share          bool    `gorm:"not null;default:false" json:"share"`
	StoragePath    string  `gorm:"type:varchar(500);not null" json:"storagePath"`
	DifyDocID      *string `gorm:"type:varchar(100);index" json:"difyDocId,omitempty"`
	DifySyncStatus string  `gorm:"type:varchar(10);not null;default:skipped" json:"difySyncStatus"`
	DifySyncError  string  `gorm:"type:varchar(500)" json:"difySyncError,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
