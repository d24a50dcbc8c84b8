// Package dsl 提供基于 CEL (Common Expression Language) 的规则表达式，
// 用于按文章字段、标签、请求上下文编写过滤规则。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/rushteam/foryou/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的规则表达式，可并发复用。
//
// 表达式语法（CEL 标准语法）：
//   - 文章字段：item.category == "sports" / item.source == "tabloid"
//   - 文本：item.title.contains("[Removed]") / item.title.matches("(?i)sponsored")
//   - 数值：item.age_hours > 72.0 / item.score > 0.2
//   - 标签：label.recall_source == "newsapi"，不存在的标签为 null
//   - 上下文：item.category in rctx.categories
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，表达式必须返回布尔值。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: init env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	if k := ast.OutputType().Kind(); k != types.BoolKind && k != types.DynKind {
		return nil, fmt.Errorf("dsl: expression %q must return bool, got %v", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Match 对 item 求值。
func (p *Program) Match(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression %q must return bool, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Evaluate 编译并执行一次表达式；空表达式视为 true。
// 同一表达式多次执行时应使用 Compile 复用 Program。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Match(item, rctx)
}

func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{})
	itemMap := map[string]interface{}{}
	if it != nil {
		for k, v := range it.Labels {
			labels[k] = v.Value
		}
		a := it.Article
		ageHours := 0.0
		if rctx != nil && !rctx.Now.IsZero() && !a.PublishedAt.IsZero() {
			ageHours = rctx.Now.Sub(a.PublishedAt).Hours()
		}
		features := make(map[string]interface{}, len(it.Features))
		for k, v := range it.Features {
			features[k] = v
		}
		itemMap = map[string]interface{}{
			"id":          it.ID,
			"title":       a.Title,
			"description": a.Description,
			"url":         a.URL,
			"source":      a.Source,
			"category":    a.Category,
			"age_hours":   ageHours,
			"score":       it.Score,
			"features":    features,
		}
	}

	rctxMap := map[string]interface{}{
		"user_id":    "",
		"categories": []string{},
		"params":     map[string]interface{}{},
	}
	if rctx != nil {
		rctxMap["user_id"] = rctx.UserID
		if rctx.Categories != nil {
			rctxMap["categories"] = rctx.Categories
		}
		if rctx.Params != nil {
			rctxMap["params"] = rctx.Params
		}
	}

	return map[string]interface{}{
		"item":  itemMap,
		"label": labels,
		"rctx":  rctxMap,
	}
}
