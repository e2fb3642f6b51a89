package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go-repo-hub/internal/apperr"
	"go-repo-hub/internal/dify"
	"go-repo-hub/internal/interfaces"
	"go-repo-hub/internal/model"
	"go-repo-hub/internal/repository"
	"go-repo-hub/pkg/logger"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	// 远程候选集的上限 超采样永远不超过这个数
	oversampleCeiling = 200
)

// 联邦检索的来源标识
const (
	SourceLocal = "local"
	SourceDify  = "dify"
)

// SearchItem 两条检索路径共用的归一化结果
// 本地路径没有相关度信号 score和snippet恒为null
type SearchItem struct {
	DocumentID *string  `json:"documentId"`
	FileID     string   `json:"fileId"`
	RepoID     string   `json:"repoId"`
	Title      string   `json:"title"`
	Snippet    *string  `json:"snippet"`
	Score      *float64 `json:"score"`
}

// SearchResult 检索响应
type SearchResult struct {
	Source   string       `json:"source"`
	Items    []SearchItem `json:"items"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

// SearchOptions 检索过滤与分页参数
type SearchOptions struct {
	RepoID   string
	Share    *bool
	Page     int
	PageSize int
}

// SearchService 联邦检索协调器
// 远程索引已配置时走远程路径 否则走本地路径 来源由配置静态决定
type SearchService struct {
	fileRepo *repository.FileRepository
	repoRepo *repository.RepoRepository
	kb       interfaces.KBClient
}

// 创建一个新的检索服务实例
func NewSearchService(fileRepo *repository.FileRepository, repoRepo *repository.RepoRepository, kb interfaces.KBClient) *SearchService {
	return &SearchService{
		fileRepo: fileRepo,
		repoRepo: repoRepo,
		kb:       kb,
	}
}

// Search 按配置选择本地或远程路径检索
// 远程故障不降级到本地 以免用陈旧的本地结果掩盖远程故障
func (s *SearchService) Search(ctx context.Context, user *model.User, query string, opts SearchOptions) (*SearchResult, error) {
	if user == nil {
		return nil, apperr.New(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required.")
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.New(http.StatusBadRequest, "SEARCH_QUERY_REQUIRED", "Search query is required.")
	}

	page := normalizePage(opts.Page)
	pageSize := normalizePageSize(opts.PageSize)

	if s.kb.Configured() {
		return s.searchDify(ctx, user, query, opts, page, pageSize)
	}
	return s.searchLocal(user, query, opts, page, pageSize)
}

// 本地路径: 全量扫描文件记录 按名称做不区分大小写的子串匹配
func (s *SearchService) searchLocal(user *model.User, query string, opts SearchOptions, page int, pageSize int) (*SearchResult, error) {
	files, err := s.fileRepo.ListAll()
	if err != nil {
		return nil, err
	}
	repoIndex, err := s.buildRepoIndex()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	filtered := make([]SearchItem, 0)
	for i := range files {
		file := &files[i]
		if !strings.Contains(strings.ToLower(file.Name), needle) {
			continue
		}
		if !matchesFilters(file, opts) {
			continue
		}
		if !Visible(user, file, repoIndex[file.RepoID]) {
			continue
		}
		filtered = append(filtered, SearchItem{
			DocumentID: file.DifyDocID,
			FileID:     file.ID,
			RepoID:     file.RepoID,
			Title:      file.Name,
			Snippet:    nil,
			Score:      nil,
		})
	}

	return &SearchResult{
		Source:   SourceLocal,
		Items:    paginate(filtered, page, pageSize),
		Total:    len(filtered),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// 远程路径
// 远程排序不感知所有权 先分页再过滤会产出残缺的页
// 所以这里超采样候选集 关联本地记录 过滤之后才分页
func (s *SearchService) searchDify(ctx context.Context, user *model.User, query string, opts SearchOptions, page int, pageSize int) (*SearchResult, error) {
	topK := oversampleSize(page, pageSize)

	records, err := s.kb.Retrieve(ctx, query, dify.RetrievalOptions{TopK: topK})
	if err != nil {
		if errors.Is(err, dify.ErrTimeout) {
			return nil, apperr.Wrap(http.StatusBadGateway, "DIFY_SEARCH_TIMEOUT", "Dify search timed out.", err)
		}
		return nil, apperr.Wrap(http.StatusBadGateway, "DIFY_SEARCH_FAILED", "Dify search failed.", err)
	}

	fileIndex, err := s.buildFileIndexByDocID()
	if err != nil {
		return nil, err
	}
	repoIndex, err := s.buildRepoIndex()
	if err != nil {
		return nil, err
	}

	filtered := make([]SearchItem, 0, len(records))
	for _, record := range records {
		if record.DocumentID == "" {
			continue
		}
		// 已删除或从未同步的远程文档丢弃
		file, ok := fileIndex[record.DocumentID]
		if !ok {
			continue
		}
		if !matchesFilters(file, opts) {
			continue
		}
		if !Visible(user, file, repoIndex[file.RepoID]) {
			continue
		}

		snippet := record.Content
		filtered = append(filtered, SearchItem{
			DocumentID: file.DifyDocID,
			FileID:     file.ID,
			RepoID:     file.RepoID,
			Title:      file.Name,
			Snippet:    &snippet,
			Score:      record.Score,
		})
	}

	logger.L.Debug("Dify search window filtered",
		zap.Int("fetched", len(records)),
		zap.Int("visible", len(filtered)),
		zap.Int("topK", topK))

	// total是取回窗口内的过滤计数 窗口之外只是近似值
	// 精确的total需要无界拉取 与检索超时的约束冲突
	return &SearchResult{
		Source:   SourceDify,
		Items:    paginate(filtered, page, pageSize),
		Total:    len(filtered),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *SearchService) buildRepoIndex() (map[string]*model.Repo, error) {
	repos, err := s.repoRepo.ListAll()
	if err != nil {
		return nil, err
	}
	index := make(map[string]*model.Repo, len(repos))
	for i := range repos {
		index[repos[i].ID] = &repos[i]
	}
	return index, nil
}

func (s *SearchService) buildFileIndexByDocID() (map[string]*model.File, error) {
	files, err := s.fileRepo.ListAll()
	if err != nil {
		return nil, err
	}
	index := make(map[string]*model.File)
	for i := range files {
		if files[i].DifyDocID != nil {
			index[*files[i].DifyDocID] = &files[i]
		}
	}
	return index, nil
}

func matchesFilters(file *model.File, opts SearchOptions) bool {
	if opts.RepoID != "" && file.RepoID != opts.RepoID {
		return false
	}
	if opts.Share != nil && file.Share != *opts.Share {
		return false
	}
	return true
}

// oversampleSize 远程候选集大小
// 至少覆盖到请求的页 并留出一页的过滤余量 上限200
func oversampleSize(page int, pageSize int) int {
	size := page * pageSize
	if min := pageSize * 2; size < min {
		size = min
	}
	if size > oversampleCeiling {
		size = oversampleCeiling
	}
	return size
}

// paginate 对过滤后的列表切页 纯函数
// 起始位置超出列表时返回空页
func paginate(items []SearchItem, page int, pageSize int) []SearchItem {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []SearchItem{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func normalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

func normalizePageSize(pageSize int) int {
	if pageSize <= 0 {
		return defaultPageSize
	}
	if pageSize > maxPageSize {
		return maxPageSize
	}
	return pageSize
}

// BuildResponse 组装响应体
func BuildResponse(result *SearchResult, query string) map[string]interface{} {
	return map[string]interface{}{
		"query":    query,
		"source":   result.Source,
		"items":    result.Items,
		"page":     result.Page,
		"pageSize": result.PageSize,
		"total":    result.Total,
	}
}
