package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"go-repo-hub/pkg/config"
	"go-repo-hub/pkg/logger"

	"go.uber.org/zap"
)

// Config Dify客户端的配置值对象
type Config struct {
	BaseURL       string
	KBID          string
	APIKey        string
	SearchTimeout time.Duration
}

// Configured 三项配置齐全时远程索引才算启用
func (c Config) Configured() bool {
	return c.BaseURL != "" && c.KBID != "" && c.APIKey != ""
}

// FromGlobal 从全局配置读取Dify配置
func FromGlobal() Config {
	d := config.GlobalConfig.Dify
	return Config{
		BaseURL:       d.BaseURL,
		KBID:          d.KBID,
		APIKey:        d.APIKey,
		SearchTimeout: d.SearchTimeout,
	}
}

// Record 检索返回的归一化记录
type Record struct {
	SegmentID  string
	DocumentID string
	Content    string
	Score      *float64
}

// RetrievalOptions 检索参数
type RetrievalOptions struct {
	TopK int
}

// Client 远程知识库的无状态适配器
// 配置通过provider在每次调用时读取 配置可以在两次调用之间变化(例如测试中)
type Client struct {
	provider func() Config
	http     *http.Client
}

// NewClient 创建Dify客户端
func NewClient(provider func() Config) *Client {
	if provider == nil {
		provider = FromGlobal
	}
	// 不给http.Client设全局超时 上传/删除允许长时间阻塞
	// 检索单独通过context限时
	return &Client{
		provider: provider,
		http:     &http.Client{},
	}
}

// Configured 当前配置是否启用远程索引
func (c *Client) Configured() bool {
	return c.provider().Configured()
}

func normalizeBaseURL(url string) string {
	return strings.TrimSuffix(url, "/")
}

func (c *Client) documentsURL(cfg Config) string {
	return fmt.Sprintf("%s/v1/knowledge-bases/%s/documents", normalizeBaseURL(cfg.BaseURL), cfg.KBID)
}

// Upload 上传文件内容 成功时返回远程文档ID
func (c *Client) Upload(filePath string, fileName string) (string, error) {
	cfg := c.provider()
	if !cfg.Configured() {
		return "", ErrNotConfigured
	}

	src, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file for dify upload: %w", err)
	}
	defer src.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return "", fmt.Errorf("failed to read file for dify upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.documentsURL(cfg), &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("dify upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RemoteError{Op: "upload", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	docID := extractDocumentID(respBody)
	if docID == "" {
		return "", fmt.Errorf("%w: no document id in upload response", ErrUnrecognizedResponse)
	}
	return docID, nil
}

// 历史上Dify的上传响应出现过多种形态
// 按优先级尝试: data.id > id > document.id
func extractDocumentID(body []byte) string {
	var payload struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
		ID       string `json:"id"`
		Document struct {
			ID string `json:"id"`
		} `json:"document"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Data.ID != "" {
		return payload.Data.ID
	}
	if payload.ID != "" {
		return payload.ID
	}
	return payload.Document.ID
}

// CheckIndexingStatus 查询远程文档的索引进度
// 仅作参考 找不到文档时返回found=false而不是错误
func (c *Client) CheckIndexingStatus(docID string) (string, bool, error) {
	cfg := c.provider()
	if !cfg.Configured() {
		return "", false, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/%s/indexing-status", c.documentsURL(cfg), docID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("dify indexing-status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false, &RemoteError{Op: "indexing-status", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var payload struct {
		IndexingStatus string `json:"indexing_status"`
		Status         string `json:"status"`
		Data           []struct {
			IndexingStatus string `json:"indexing_status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return "", false, fmt.Errorf("failed to decode indexing-status response: %w", err)
	}

	// 响应形态同样有多个版本 按优先级取值
	status := payload.IndexingStatus
	if status == "" {
		status = payload.Status
	}
	if status == "" && len(payload.Data) > 0 {
		status = payload.Data[0].IndexingStatus
	}
	return status, true, nil
}

// Delete 删除远程文档 幂等
// 文档已经不存在时视为成功 返回false表示远端本来就没有
func (c *Client) Delete(docID string) (bool, error) {
	cfg := c.provider()
	if !cfg.Configured() {
		return false, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/%s", c.documentsURL(cfg), docID)
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("dify delete request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, &RemoteError{Op: "delete", StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return true, nil
}

// Retrieve 向知识库发起内容检索
// 超时由配置的search_timeout限定 超时返回ErrTimeout
// 404按空结果处理 其余非2xx状态携带响应原文返回RemoteError
func (c *Client) Retrieve(ctx context.Context, query string, opts RetrievalOptions) ([]Record, error) {
	cfg := c.provider()
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}

	payload := map[string]interface{}{
		"query": query,
		"retrieval_model": map[string]interface{}{
			"search_method": "semantic_search",
			"top_k":         topK,
		},
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	timeout := cfg.SearchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1/knowledge-bases/%s/retrieve", normalizeBaseURL(cfg.BaseURL), cfg.KBID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// 超时要和一般传输错误区分开 超时后丢弃该次调用的任何结果
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("dify retrieve request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// 集合不存在或还没有文档 视为无结果
		return []Record{}, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("failed to read dify retrieve response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{Op: "retrieve", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	records, dropped := decodeRecords(respBody)
	if dropped > 0 {
		logger.L.Warn("Dropped malformed dify records", zap.Int("dropped", dropped))
	}
	return records, nil
}

// 检索响应的归一化
// 文档ID优先取segment.document_id 退回record.document_id
// 段ID优先取segment.id 退回record.id
// 两个ID都没有的记录直接丢弃 不视为致命错误
func decodeRecords(body []byte) ([]Record, int) {
	var payload struct {
		Records []struct {
			Segment struct {
				ID         string `json:"id"`
				DocumentID string `json:"document_id"`
				Content    string `json:"content"`
			} `json:"segment"`
			DocumentID string   `json:"document_id"`
			ID         string   `json:"id"`
			Content    string   `json:"content"`
			Score      *float64 `json:"score"`
		} `json:"records"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return []Record{}, 0
	}

	records := make([]Record, 0, len(payload.Records))
	dropped := 0
	for _, raw := range payload.Records {
		docID := raw.Segment.DocumentID
		if docID == "" {
			docID = raw.DocumentID
		}
		segID := raw.Segment.ID
		if segID == "" {
			segID = raw.ID
		}
		if docID == "" && segID == "" {
			dropped++
			continue
		}

		content := raw.Segment.Content
		if content == "" {
			content = raw.Content
		}
		records = append(records, Record{
			SegmentID:  segID,
			DocumentID: docID,
			Content:    content,
			Score:      raw.Score,
		})
	}
	return records, dropped
}
