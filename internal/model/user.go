package model

import (
	"time"
)

// 用户角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"type:varchar(30);not null;uniqueIndex:idx_username" json:"username"`
	Password  string `gorm:"type:varchar(100);not null" json:"-"`
	Email     string `gorm:"type:varchar(100);not null;uniqueIndex:idx_email" json:"email"`
	Role      string `gorm:"type:varchar(10);not null;default:user" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin 判断是否是管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
