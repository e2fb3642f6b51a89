package dify

import (
	"errors"
	"fmt"
)

// 远程知识库未配置 每次调用时检查 不做进程级缓存
var ErrNotConfigured = errors.New("dify is not configured")

// 检索请求超时 与一般传输错误区分开 上层据此返回专门的错误码
var ErrTimeout = errors.New("dify retrieve timed out")

// 上传响应里找不到可识别的文档ID
var ErrUnrecognizedResponse = errors.New("unrecognized dify response shape")

// RemoteError 远程服务返回了非预期的HTTP状态
// Body保留响应原文用于排查
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("dify %s failed (%d): %s", e.Op, e.StatusCode, e.Body)
}
