// Package source 提供 core.ArticleSource 的实现：NewsAPI、静态列表，以及带 TTL 的缓存装饰器。
package source

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/foryou/core"
)

const (
	DefaultNewsAPIBaseURL = "https://newsapi.org"
	DefaultCountry        = "us"
	// NewsAPI 单页上限
	maxPageSize = 100
	removedMark = "[Removed]"
)

// TopHeadlineCategories 是 /v2/top-headlines 支持的类别，其余类别走 /v2/everything 关键词检索。
var TopHeadlineCategories = map[string]bool{
	"business":      true,
	"entertainment": true,
	"general":       true,
	"health":        true,
	"science":       true,
	"sports":        true,
	"technology":    true,
}

// NewsAPI 是 newsapi.org 的 ArticleSource 实现。
type NewsAPI struct {
	apiKey  string
	baseURL string
	country string
	client  *http.Client
	logger  zerolog.Logger
}

// NewsAPIOption 配置 NewsAPI。
type NewsAPIOption func(*NewsAPI)

// WithBaseURL 替换接口地址（测试时指向 httptest.Server）。
func WithBaseURL(u string) NewsAPIOption {
	return func(n *NewsAPI) { n.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient 替换 HTTP 客户端。
func WithHTTPClient(c *http.Client) NewsAPIOption {
	return func(n *NewsAPI) { n.client = c }
}

// WithCountry 设置 top-headlines 的国家。
func WithCountry(country string) NewsAPIOption {
	return func(n *NewsAPI) { n.country = country }
}

// WithLogger 设置日志。
func WithLogger(l zerolog.Logger) NewsAPIOption {
	return func(n *NewsAPI) { n.logger = l }
}

func NewNewsAPI(apiKey string, opts ...NewsAPIOption) *NewsAPI {
	n := &NewsAPI{
		apiKey:  apiKey,
		baseURL: DefaultNewsAPIBaseURL,
		country: DefaultCountry,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With().Str("component", "source.newsapi").Logger()
	return n
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
		Content     string    `json:"content"`
	} `json:"articles"`
}

// Candidates 并发拉取每个类别，按类别轮流合并后截断到 limit。
// 任一类别失败即整体失败，不返回部分结果。
func (n *NewsAPI) Candidates(ctx context.Context, categories []string, limit int) ([]core.Article, error) {
	cats := normalizeCategories(categories)
	if len(cats) == 0 {
		cats = []string{"general"}
	}
	pageSize := limit
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	results := make([][]core.Article, len(cats))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, cat := range cats {
		eg.Go(func() error {
			articles, err := n.fetch(egCtx, cat, pageSize)
			if err != nil {
				return err
			}
			results[i] = articles
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		n.logger.Warn().Err(err).Strs("categories", cats).Msg("fetch candidates failed")
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, "source: newsapi unavailable", err)
	}

	out := interleave(results, limit)
	n.logger.Debug().Strs("categories", cats).Int("candidates", len(out)).Msg("fetched candidates")
	return out, nil
}

func (n *NewsAPI) fetch(ctx context.Context, category string, pageSize int) ([]core.Article, error) {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))
	endpoint := "/v2/everything"
	if TopHeadlineCategories[category] {
		endpoint = "/v2/top-headlines"
		q.Set("category", category)
		q.Set("country", n.country)
	} else {
		q.Set("q", category)
		q.Set("sortBy", "publishedAt")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi %s: %w", category, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("newsapi %s: read body: %w", category, err)
	}

	var apiResp newsAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("newsapi %s: status %d", category, resp.StatusCode)
		}
		return nil, fmt.Errorf("newsapi %s: decode: %w", category, err)
	}
	if resp.StatusCode != http.StatusOK || apiResp.Status != "ok" {
		return nil, fmt.Errorf("newsapi %s: status %d: %s %s", category, resp.StatusCode, apiResp.Code, apiResp.Message)
	}

	articles := make([]core.Article, 0, len(apiResp.Articles))
	for _, a := range apiResp.Articles {
		if a.Title == "" || a.Title == removedMark || a.URL == "" {
			continue
		}
		desc := a.Description
		if desc == removedMark {
			desc = ""
		}
		article := core.Article{
			ID:          HashURL(a.URL),
			Title:       a.Title,
			Description: desc,
			URL:         a.URL,
			Source:      a.Source.Name,
			Category:    category,
			PublishedAt: a.PublishedAt.UTC(),
		}
		if article.Text() == "" {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// HashURL 以 URL 的 SHA-1 作为文章 ID。
func HashURL(u string) string {
	sum := sha1.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}

func normalizeCategories(categories []string) []string {
	seen := make(map[string]bool, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// interleave 按类别轮流取文章并按 ID 去重，limit <= 0 表示不截断。
func interleave(groups [][]core.Article, limit int) []core.Article {
	seen := make(map[string]bool)
	var out []core.Article
	for i := 0; ; i++ {
		progressed := false
		for _, g := range groups {
			if i >= len(g) {
				continue
			}
			progressed = true
			a := g[i]
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			out = append(out, a)
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
		if !progressed {
			return out
		}
	}
}

var _ core.ArticleSource = (*NewsAPI)(nil)
