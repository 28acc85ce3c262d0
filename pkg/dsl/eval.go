package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/bookrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 缓存已编译的表达式
	programs sync.Map
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("book", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的布尔表达式，可并发复用。
//
// 可用变量：
//   - item:  id / score / features / labels
//   - label: 标签值的简写，例如 label.recall_source
//   - book:  书目元信息 title / author / genre / year / average_rating
//   - rctx:  user_id / request_id / scene / params
//
// 示例：
//   - `book.genre == "Fantasy"`
//   - `label.recall_source.contains("content") && item.score > 0.2`
//   - `book.year >= 1950`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；同一表达式只编译一次。
func Compile(expr string) (*Program, error) {
	if v, ok := programs.Load(expr); ok {
		return v.(*Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return bool, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	p := &Program{expr: expr, prg: prg}
	actual, _ := programs.LoadOrStore(expr, p)
	return actual.(*Program), nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Eval 在 item 与请求上下文上执行表达式。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 访问不存在的 key 会报错，应先用 `"key" in label` 判断
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{})
	labelValues := make(map[string]interface{})
	item := map[string]interface{}{}
	book := map[string]interface{}{}
	if it != nil {
		for k, v := range it.Labels {
			labels[k] = map[string]interface{}{
				"value":  v.Value,
				"source": v.Source,
			}
			labelValues[k] = v.Value
		}
		features := make(map[string]interface{}, len(it.Features))
		for k, v := range it.Features {
			features[k] = v
		}
		item = map[string]interface{}{
			"id":       it.ID,
			"score":    it.Score,
			"features": features,
			"labels":   labels,
		}
		for k, v := range it.Meta {
			book[k] = v
		}
	}

	r := map[string]interface{}{}
	if rctx != nil {
		params := make(map[string]interface{}, len(rctx.Params))
		for k, v := range rctx.Params {
			params[k] = v
		}
		r = map[string]interface{}{
			"user_id":    rctx.UserID,
			"request_id": rctx.RequestID,
			"scene":      rctx.Scene,
			"params":     params,
		}
	}

	return map[string]interface{}{
		"item":  item,
		"label": labelValues,
		"book":  book,
		"rctx":  r,
	}
}
