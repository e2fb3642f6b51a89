package service

import (
	"go-repo-hub/internal/model"
)

// Visible 判定用户能否看到某个文件 纯函数 无副作用
// 规则: 管理员可见一切 仓库所有者可见自己的文件
// share=true把可见范围放宽到任意已登录用户 从不放宽到未登录调用方
// 所有权以本地元数据为准 远程知识库永远不参与访问判定
func Visible(user *model.User, file *model.File, repo *model.Repo) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	if repo != nil && repo.Owner == user.Username {
		return true
	}
	return file != nil && file.Share
}
