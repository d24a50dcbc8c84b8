package filter

import (
	"context"

	"github.com/rushteam/foryou/core"
	"github.com/rushteam/foryou/pkg/dsl"
)

// ExprFilter 按 CEL 表达式过滤，表达式为 true 的文章被移除。
// 例如 `item.category == "sports" || item.title.contains("[Removed]")`。
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式，语法错误在构造时返回。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Expr 返回表达式原文。
func (f *ExprFilter) Expr() string {
	return f.prg.String()
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return false, nil
	}
	return f.prg.Match(item, rctx)
}
