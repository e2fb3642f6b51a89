package interfaces

import (
	"context"

	"go-repo-hub/internal/dify"
	"go-repo-hub/internal/event"
)

// KBClient 远程知识库客户端
// internal/dify.Client实现 服务层只依赖这个接口 测试时可替换为假实现
type KBClient interface {
	Configured() bool
	Upload(filePath string, fileName string) (string, error)
	CheckIndexingStatus(docID string) (string, bool, error)
	Delete(docID string) (bool, error)
	Retrieve(ctx context.Context, query string, opts dify.RetrievalOptions) ([]dify.Record, error)
}

// 已连接的事件订阅客户端
type Client interface {
	GetUsername() string
	IsAdmin() bool
	QueueBytes(data []byte) error
	Close()
}

// EventNotifier 同步事件的分发器
// internal/notify的Hub/KafkaHub实现
// 事件只作通知用途 分发失败不影响任何请求的结果
type EventNotifier interface {
	Register(client Client)
	Unregister(client Client)
	Notify(ev *event.Event) error
}
