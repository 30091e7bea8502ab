package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/melorank/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境，声明表达式可用的变量
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("song", cel.DynType),
			cel.Variable("ref", cel.DynType),
			cel.Variable("params", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译好的候选过滤表达式，使用 CEL (Common Expression Language)。
// 编译一次，可被多个 goroutine 并发求值。
//
// 可用变量：
//   - song：候选歌曲 {id, title, genres, speed, mood_tags, instrument_tags, explicit, like_count}
//   - ref：参考歌曲，字段同上（没有参考歌曲时为空 map）
//   - params：请求参数
//
// 示例：
//   - `song.speed != "slow"`
//   - `!song.explicit && song.like_count >= 10.0`
//   - `"jazz" in song.genres || song.speed == ref.speed`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 解析并编译表达式；表达式必须返回布尔值。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return boolean, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (p *Program) String() string { return p.expr }

// Match 对一首候选歌曲求值。
func (p *Program) Match(song *core.SongFeatures, rctx *core.RecommendContext) (bool, error) {
	input := map[string]any{
		"song":   songInput(song),
		"ref":    map[string]any{},
		"params": map[string]any{},
	}
	if rctx != nil {
		if rctx.Reference != nil {
			input["ref"] = songInput(rctx.Reference)
		}
		if rctx.Params != nil {
			input["params"] = rctx.Params
		}
	}

	out, _, err := p.prg.Eval(input)
	if err != nil {
		// 访问不存在的 key 会报错，调用方应避免或用 has() 检查
		return false, fmt.Errorf("eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// songInput 把歌曲转换成 CEL 可访问的 map
func songInput(song *core.SongFeatures) map[string]any {
	if song == nil {
		return map[string]any{}
	}
	genres := make([]string, len(song.Genres))
	copy(genres, song.Genres)
	return map[string]any{
		"id":              song.ID,
		"title":           song.Title,
		"genres":          genres,
		"speed":           song.Speed,
		"mood_tags":       song.MoodTags,
		"instrument_tags": song.InstrumentTags,
		"explicit":        song.Explicit,
		"like_count":      song.LikeCount,
	}
}
