package feed

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/foryou/config"
	_ "github.com/rushteam/foryou/config/builders"
	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/pipeline"
	"github.com/rushteam/foryou/pkg/dsl"
	"github.com/rushteam/foryou/pkg/text"
	"github.com/rushteam/foryou/profile"
	"github.com/rushteam/foryou/rank"
	"github.com/rushteam/foryou/recall"
)

// 环境变量
const (
	EnvConfigPath = "FORYOU_CONFIG"
	EnvTopK       = "FORYOU_TOP_K"
)

const DefaultTopK = 30

// DefaultCategories 是用户未设置偏好时的召回类别
var DefaultCategories = []string{"general", "technology", "business"}

// Config 是 Feed 组装的全部可调参数。
type Config struct {
	// 画像
	LikeWeight          int  `yaml:"like_weight"`
	ViewWeight          int  `yaml:"view_weight"`
	HistoryWindow       int  `yaml:"history_window"`
	StrongestSignalOnly bool `yaml:"strongest_signal_only"`
	KeepStopWords       bool `yaml:"keep_stop_words"`

	// MinLikes like 数低于该值时不做个性化，按发布时间排序
	MinLikes int `yaml:"min_likes"`

	// 排序
	DislikeWeight    float64 `yaml:"dislike_weight"`
	RecencyDecayRate float64 `yaml:"recency_decay_rate"`
	RecencyWeight    float64 `yaml:"recency_weight"`
	MinSimilarity    float64 `yaml:"min_similarity"`
	MinResults       int     `yaml:"min_results"`

	// TopK 调用方未指定时返回的条数
	TopK int `yaml:"top_k"`

	// 召回
	CandidateLimit    int      `yaml:"candidate_limit"`
	DefaultCategories []string `yaml:"default_categories"`
	// SourceTimeout 单个候选源的超时，0 表示只受请求 ctx 约束
	SourceTimeout time.Duration `yaml:"source_timeout"`

	// 过滤
	ExcludeExpr       string   `yaml:"exclude_expr"`
	BlockedCategories []string `yaml:"blocked_categories"`
	BlockedSources    []string `yaml:"blocked_sources"`
	// ExposedDayWindow > 0 时启用曝光布隆过滤（需 WithExposure）
	ExposedDayWindow int `yaml:"exposed_day_window"`

	// ExtraNodes 插入在排序之后、Top-K 截断之前的配置化 Node
	ExtraNodes []pipeline.NodeConfig `yaml:"extra_nodes"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		LikeWeight:        profile.DefaultLikeWeight,
		ViewWeight:        profile.DefaultViewWeight,
		HistoryWindow:     profile.DefaultHistoryWindow,
		DislikeWeight:     rank.DefaultDislikeWeight,
		RecencyDecayRate:  rank.DefaultRecencyDecayRate,
		RecencyWeight:     rank.DefaultRecencyWeight,
		TopK:              DefaultTopK,
		CandidateLimit:    recall.DefaultCandidateLimit,
		DefaultCategories: append([]string(nil), DefaultCategories...),
	}
}

// LoadConfig 在默认配置上叠加 YAML 文件与环境变量。
// path 为空时读取 FORYOU_CONFIG；两者都为空时只使用默认值与环境变量。
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, invalidConfig("parse config yaml", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvTopK)); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, invalidConfig(EnvTopK+" must be an integer", err)
		}
		cfg.TopK = k
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 校验配置，错误码为 INVALID_CONFIG。
func (c Config) Validate() error {
	if err := c.profileBuilder().Validate(); err != nil {
		return invalidConfig("profile", err)
	}
	if err := c.ranker().Validate(); err != nil {
		return invalidConfig("rank", err)
	}
	switch {
	case c.HistoryWindow < 0:
		return invalidConfig(fmt.Sprintf("history_window must be >= 0, got %d", c.HistoryWindow), nil)
	case c.MinLikes < 0:
		return invalidConfig(fmt.Sprintf("min_likes must be >= 0, got %d", c.MinLikes), nil)
	case c.TopK <= 0:
		return invalidConfig(fmt.Sprintf("top_k must be positive, got %d", c.TopK), nil)
	case c.CandidateLimit < 0:
		return invalidConfig(fmt.Sprintf("candidate_limit must be >= 0, got %d", c.CandidateLimit), nil)
	case c.SourceTimeout < 0:
		return invalidConfig(fmt.Sprintf("source_timeout must be >= 0, got %v", c.SourceTimeout), nil)
	case c.ExposedDayWindow < 0:
		return invalidConfig(fmt.Sprintf("exposed_day_window must be >= 0, got %d", c.ExposedDayWindow), nil)
	}
	if c.ExcludeExpr != "" {
		if _, err := dsl.Compile(c.ExcludeExpr); err != nil {
			return invalidConfig("exclude_expr", err)
		}
	}
	if err := config.ValidatePipelineConfig(c.extraPipelineConfig()); err != nil {
		return invalidConfig("extra_nodes", err)
	}
	return nil
}

func (c Config) profileBuilder() *profile.Builder {
	return &profile.Builder{
		LikeWeight:          c.LikeWeight,
		ViewWeight:          c.ViewWeight,
		HistoryWindow:       c.HistoryWindow,
		StrongestSignalOnly: c.StrongestSignalOnly,
		Normalizer:          c.normalizer(),
	}
}

func (c Config) ranker() *rank.Ranker {
	return &rank.Ranker{
		RecencyDecayRate: c.RecencyDecayRate,
		RecencyWeight:    c.RecencyWeight,
		DislikeWeight:    c.DislikeWeight,
		MinSimilarity:    c.MinSimilarity,
		MinResults:       c.MinResults,
	}
}

func (c Config) normalizer() text.Normalizer {
	return text.Normalizer{KeepStopWords: c.KeepStopWords}
}

func (c Config) extraPipelineConfig() *pipeline.Config {
	if len(c.ExtraNodes) == 0 {
		return nil
	}
	pc := &pipeline.Config{}
	pc.Pipeline.Name = "extra"
	pc.Pipeline.Nodes = c.ExtraNodes
	return pc
}

func (c Config) categories(prefs *core.Preferences) []string {
	if prefs != nil && len(prefs.Categories) > 0 {
		return prefs.Categories
	}
	if len(c.DefaultCategories) > 0 {
		return c.DefaultCategories
	}
	return DefaultCategories
}

func invalidConfig(msg string, cause error) error {
	if cause == nil {
		return core.NewDomainError(core.ModuleFeed, core.ErrorCodeInvalidConfig, "feed: "+msg)
	}
	return core.WrapDomainError(core.ModuleFeed, core.ErrorCodeInvalidConfig, "feed: "+msg, cause)
}
