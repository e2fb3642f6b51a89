package service

import (
	"testing"

	"go-repo-hub/internal/model"

	"github.com/stretchr/testify/assert"
)

// 可见性真值表 admin/owner/share三个维度全枚举
func TestVisible(t *testing.T) {
	tests := []struct {
		role  string
		owner bool
		share bool
		want  bool
	}{
		{role: "user", owner: false, share: false, want: false},
		{role: "user", owner: false, share: true, want: true},
		{role: "user", owner: true, share: false, want: true},
		{role: "user", owner: true, share: true, want: true},
		{role: "admin", owner: false, share: false, want: true},
		{role: "admin", owner: false, share: true, want: true},
		{role: "admin", owner: true, share: false, want: true},
		{role: "admin", owner: true, share: true, want: true},
	}

	for _, tt := range tests {
		user := &model.User{Username: "alice", Role: tt.role}
		owner := "bob"
		if tt.owner {
			owner = "alice"
		}
		repo := &model.Repo{ID: "repo-1", Owner: owner}
		file := &model.File{ID: "file-1", RepoID: repo.ID, Share: tt.share}

		got := Visible(user, file, repo)
		assert.Equalf(t, tt.want, got, "role=%s owner=%v share=%v", tt.role, tt.owner, tt.share)
	}
}

func TestVisible_NilUser(t *testing.T) {
	repo := &model.Repo{ID: "repo-1", Owner: "bob"}
	file := &model.File{ID: "file-1", RepoID: repo.ID, Share: true}

	// share=true只放宽到已登录用户 未登录一律不可见
	assert.False(t, Visible(nil, file, repo))
}
