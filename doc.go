// Package foryou 是基于内容的 "For You" 新闻个性化引擎。
//
// 设计要点：
// - Pipeline-first: Feed 组装通过 Node 串联（Recall → Filter → Rank → ReRank）
// - 画像即时构建: 每次请求由交互历史重建兴趣文档与 TF-IDF 空间，不缓存、不共享可变状态
// - Labels-first: 召回来源、过滤原因、补位标记等通过 labels 透传，便于 explain / 观测
//
// 入口见 feed.New 与 (*feed.Assembler).ForYouFeed。
package foryou

import (
	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/feed"
	"github.com/rushteam/foryou/pipeline"
)

// 轻量 facade：便于直接 import "foryou" 使用核心抽象。
type (
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind

	Assembler        = feed.Assembler
	Config           = feed.Config
	Feed             = feed.Feed
	Article          = core.Article
	RankedCandidate  = core.RankedCandidate
	InteractionEvent = core.InteractionEvent
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// New 等同于 feed.New。
var New = feed.New

// DefaultConfig 等同于 feed.DefaultConfig。
var DefaultConfig = feed.DefaultConfig
