package model

import (
	"time"
)

// 仓库可见性
const (
	VisibilityPrivate = "private"
	VisibilityShared  = "shared"
)

// Repo 文件仓库 归属于唯一的所有者
// 同一所有者下仓库名唯一(不区分大小写)
type Repo struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Owner       string `gorm:"type:varchar(30);not null;index;uniqueIndex:idx_owner_name" json:"owner"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex:idx_owner_name" json:"name"`
	Description string `gorm:"type:varchar(500)" json:"description"`
	Visibility  string `gorm:"type:varchar(10);not null;default:private" json:"visibility"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
