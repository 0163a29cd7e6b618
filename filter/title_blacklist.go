package filter

import (
	"context"
	"strings"

	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/pkg/conv"
)

// ParamExcludeTitles 是请求参数中排除书名列表的 key（[]string 或 []any）。
const ParamExcludeTitles = "exclude_titles"

// TitleBlacklist 按书名排除候选书，书名比较忽略大小写与首尾空白。
// 来源有两个：配置中的固定列表，以及请求参数 exclude_titles（例如读者已读过的书）。
type TitleBlacklist struct {
	titles map[string]struct{}

	// ParamKey 为空时使用 ParamExcludeTitles
	ParamKey string
}

var _ Filter = (*TitleBlacklist)(nil)

// NewTitleBlacklist 创建书名黑名单过滤器。
func NewTitleBlacklist(titles []string) *TitleBlacklist {
	f := &TitleBlacklist{titles: make(map[string]struct{}, len(titles))}
	for _, t := range titles {
		f.titles[normalizeTitle(t)] = struct{}{}
	}
	return f
}

func (f *TitleBlacklist) Name() string {
	return "filter.title_blacklist"
}

func (f *TitleBlacklist) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	title := normalizeTitle(item.Title)
	if _, ok := f.titles[title]; ok {
		return true, nil
	}

	key := f.ParamKey
	if key == "" {
		key = ParamExcludeTitles
	}
	for _, t := range conv.ToStringSlice(rctx.Param(key)) {
		if normalizeTitle(t) == title {
			return true, nil
		}
	}
	return false, nil
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
