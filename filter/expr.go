package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/dsl"
)

// ExprFilter 按 CEL 表达式过滤，表达式为 true 的书目被移除。
// Invert 为 true 时语义反转：只保留表达式为 true 的书目。
//
//	book.genre == "Horror"            // 去掉恐怖类
//	book.year < 1900                  // 去掉 1900 年以前的
type ExprFilter struct {
	Expr   string
	Invert bool

	prg *dsl.Program
}

// NewExprFilter 编译表达式，语法错误在构造时返回。
func NewExprFilter(expr string, invert bool) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{Expr: expr, Invert: invert, prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	prg := f.prg
	if prg == nil {
		var err error
		if prg, err = dsl.Compile(f.Expr); err != nil {
			return false, err
		}
	}
	ok, err := prg.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return ok != f.Invert, nil
}
