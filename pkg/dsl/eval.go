package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/moodrec/core"
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

// Expr 是编译好的 CEL (Common Expression Language) 表达式，可并发复用。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.score < 0.1 / item.features.grief > 0.5
//   - 元信息：item.meta.language != "en"
//   - 标签：label.recall_source == "emotion"
//   - 请求：rctx.main_category == "negative" && item.features.fear > 0.3
//   - 包含：item.title.contains("Vol.")
//
// 注意：访问不存在的 key 会返回求值错误，可以先用 has(item.meta.language) 判断。
type Expr struct {
	source string
	prg    cel.Program
}

// Compile 编译表达式；表达式必须返回 bool。
func Compile(expr string) (*Expr, error) {
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
	return &Expr{source: expr, prg: prg}, nil
}

// String 返回表达式原文。
func (e *Expr) String() string { return e.source }

// Eval 对单个候选项求值。
func (e *Expr) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := e.prg.Eval(BuildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// BuildInput 构建 CEL 表达式的输入数据。
func BuildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any)
	itemMap := map[string]any{}
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = v.Value
		}
		features := make(map[string]any, len(item.Features))
		for k, v := range item.Features {
			features[k] = v
		}
		meta := make(map[string]any, len(item.Meta))
		for k, v := range item.Meta {
			meta[k] = v
		}
		itemMap = map[string]any{
			"id":       int64(item.ID),
			"title":    item.Title,
			"score":    item.Score,
			"features": features,
			"meta":     meta,
		}
	}

	rctxMap := map[string]any{}
	if rctx != nil {
		params := make(map[string]any, len(rctx.Params))
		for k, v := range rctx.Params {
			params[k] = v
		}
		rctxMap = map[string]any{
			"request_id":    rctx.RequestID,
			"main_category": rctx.MainCategory,
			"dominant":      rctx.Profile.Dominant(),
			"intensity":     rctx.Profile.Intensity(),
			"total":         int64(rctx.Total),
			"params":        params,
		}
	}

	return map[string]any{
		"item":  itemMap,
		"label": labels,
		"rctx":  rctxMap,
	}
}
