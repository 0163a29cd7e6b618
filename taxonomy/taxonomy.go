// Package taxonomy 维护情绪类别体系：类别 -> 成员情绪，主类别 -> 配比表。
//
// 类别与配比都是有序的。YAML 中 mapping 的书写顺序会被保留下来，
// 作为主类别平局与名额分配顺序的依据。
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/moodrec/core"
)

// DefaultCategory 是未命中任何类别时的兜底主类别。
const DefaultCategory = "neutral"

//go:embed default.yaml
var defaultYAML []byte

// MainRatios 是某个主类别对应的配比表。
type MainRatios struct {
	Main  string
	Table core.RatioTable
}

// Taxonomy 是只读的类别体系，构建后可并发读取。
type Taxonomy struct {
	Categories []core.Category
	Ratios     []MainRatios
	Default    string
}

// Default 返回内置类别体系。内置文件随二进制分发，解析失败属于编程错误。
func Default() *Taxonomy {
	t, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("taxonomy: builtin default is invalid: %v", err))
	}
	return t
}

// Load 从 YAML 文件加载类别体系。
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleTaxonomy, core.ErrorCodeNotFound,
			fmt.Sprintf("read taxonomy %s", path), err)
	}
	return Parse(data)
}

// Parse 解析 YAML 并校验。
//
//	default: neutral
//	categories:
//	  positive: [joy, love]
//	ratios:
//	  positive: {positive: 0.8, cognitive: 0.2}
func Parse(data []byte) (*Taxonomy, error) {
	var doc struct {
		Default    string    `yaml:"default"`
		Categories yaml.Node `yaml:"categories"`
		Ratios     yaml.Node `yaml:"ratios"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, malformed("parse yaml", err)
	}

	t := &Taxonomy{Default: doc.Default}
	if t.Default == "" {
		t.Default = DefaultCategory
	}

	cats, err := orderedPairs(&doc.Categories, "categories")
	if err != nil {
		return nil, err
	}
	for _, kv := range cats {
		var members []string
		if err := kv.value.Decode(&members); err != nil {
			return nil, malformed(fmt.Sprintf("category %q", kv.key), err)
		}
		t.Categories = append(t.Categories, core.Category{Name: kv.key, Emotions: members})
	}

	mains, err := orderedPairs(&doc.Ratios, "ratios")
	if err != nil {
		return nil, err
	}
	for _, kv := range mains {
		entries, err := orderedPairs(kv.value, "ratios."+kv.key)
		if err != nil {
			return nil, err
		}
		mr := MainRatios{Main: kv.key}
		for _, e := range entries {
			var w float64
			if err := e.value.Decode(&w); err != nil {
				return nil, malformed(fmt.Sprintf("ratio %s.%s", kv.key, e.key), err)
			}
			mr.Table = append(mr.Table, core.Ratio{Category: e.key, Weight: w})
		}
		t.Ratios = append(t.Ratios, mr)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

type pair struct {
	key   string
	value *yaml.Node
}

// orderedPairs 按书写顺序展开 mapping 节点；空节点返回 nil。
func orderedPairs(n *yaml.Node, path string) ([]pair, error) {
	if n == nil || n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, core.NewDomainError(core.ModuleTaxonomy, core.ErrorCodeMalformedData,
			fmt.Sprintf("%s: expected mapping at line %d", path, n.Line))
	}
	out := make([]pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, pair{key: n.Content[i].Value, value: n.Content[i+1]})
	}
	return out, nil
}

func malformed(msg string, err error) error {
	return core.WrapDomainError(core.ModuleTaxonomy, core.ErrorCodeMalformedData, msg, err)
}

// Validate 检查：名称非空且不重复、权重在 [0,1]、兜底类别存在配比表。
func (t *Taxonomy) Validate() error {
	seen := make(map[string]bool, len(t.Categories))
	for _, c := range t.Categories {
		if c.Name == "" {
			return core.NewDomainError(core.ModuleTaxonomy, core.ErrorCodeMalformedData, "category with empty name")
		}
		if seen[c.Name] {
			return core.NewDomainError(core.ModuleTaxonomy, core.ErrorCodeMalformedData,
				fmt.Sprintf("duplicate category %q", c.Name))
		}
		seen[c.Name] = true
	}
	for _, mr := range t.Ratios {
		for _, r := range mr.Table {
			if r.Category == "" {
				return core.NewDomainError(core.ModuleTaxonomy, core.ErrorCodeMalformedData,
					fmt.Sprintf("ratio table %q has an entry with empty category", mr.Main))
			}
			if r.Weight < 0 || r.Weight > 1 {
				return core.NewDomainError(core.ModuleTaxonomy, core.ErrorCodeMalformedData,
					fmt.Sprintf("ratio %s.%s = %v out of [0,1]", mr.Main, r.Category, r.Weight))
			}
		}
	}
	if _, ok := t.table(t.Default); !ok {
		return core.NewDomainError(core.ModuleTaxonomy, core.ErrorCodeMalformedData,
			fmt.Sprintf("missing ratio table for default category %q", t.Default))
	}
	return nil
}

// CategoryOf 返回按声明顺序第一个包含 label 的类别，未命中返回 Default。
func (t *Taxonomy) CategoryOf(label string) string {
	for _, c := range t.Categories {
		if c.Contains(label) {
			return c.Name
		}
	}
	return t.Default
}

// MainCategory 返回主导情绪对应的主类别。
func (t *Taxonomy) MainCategory(dominant string) string {
	return t.CategoryOf(dominant)
}

// RatiosFor 返回主类别的配比表；未配置时回落到 Default 的配比表。
func (t *Taxonomy) RatiosFor(main string) core.RatioTable {
	if tbl, ok := t.table(main); ok {
		return tbl
	}
	tbl, _ := t.table(t.Default)
	return tbl
}

func (t *Taxonomy) table(main string) (core.RatioTable, bool) {
	for _, mr := range t.Ratios {
		if mr.Main == main {
			return mr.Table, true
		}
	}
	return nil, false
}

// Members 返回类别的成员情绪。
func (t *Taxonomy) Members(category string) ([]string, bool) {
	for _, c := range t.Categories {
		if c.Name == category {
			return c.Emotions, true
		}
	}
	return nil, false
}

// CategoryMap 返回 类别名 -> 成员 的副本，供 RecommendContext 使用。
func (t *Taxonomy) CategoryMap() map[string][]string {
	out := make(map[string][]string, len(t.Categories))
	for _, c := range t.Categories {
		out[c.Name] = c.Emotions
	}
	return out
}

// UnknownCategories 返回配比表中引用了但未定义的类别（"main.category" 形式），
// 分配阶段会跳过它们，这里仅用于启动日志。
func (t *Taxonomy) UnknownCategories() []string {
	var out []string
	for _, mr := range t.Ratios {
		for _, r := range mr.Table {
			if _, ok := t.Members(r.Category); !ok {
				out = append(out, mr.Main+"."+r.Category)
			}
		}
	}
	return out
}
