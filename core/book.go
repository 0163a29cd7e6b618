package core

import "fmt"

// Book 是书库中的一行。
//   - ID 是行号（代理键），与 Corpus.Matrix 的行一一对应
//   - Title 是展示名，也是去重键；书库不保证唯一
//   - Emotions 是原始（未归一化）的情绪特征值，用于计算类别强度
type Book struct {
	ID       int
	Title    string
	Emotions map[string]float64
	Meta     map[string]any
}

// Corpus 是进程级只读书库：书目元数据 + 行对齐的特征矩阵。
//
// 不变量：
//   - len(Books) == len(Matrix)，Matrix[i] 对应 Books[i]
//   - 每一行长度都等于 len(Columns)，且已归一化为单位 L2 范数
//
// 加载后不再修改，多请求并发读取无需加锁。
type Corpus struct {
	Books   []Book
	Matrix  [][]float64
	Columns []string
}

func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Books)
}

// Dimension 返回特征维度 D。
func (c *Corpus) Dimension() int {
	if c == nil {
		return 0
	}
	return len(c.Columns)
}

// Validate 检查行对齐与维度一致性。
func (c *Corpus) Validate() error {
	if c == nil {
		return NewDomainError(ModuleCorpus, ErrorCodeMalformedData, "corpus is nil")
	}
	if len(c.Books) != len(c.Matrix) {
		return NewDomainError(ModuleCorpus, ErrorCodeMalformedData,
			fmt.Sprintf("corpus rows misaligned: %d books, %d vectors", len(c.Books), len(c.Matrix)))
	}
	d := len(c.Columns)
	for i, row := range c.Matrix {
		if len(row) != d {
			return NewDomainError(ModuleCorpus, ErrorCodeMalformedData,
				fmt.Sprintf("corpus row %d has dimension %d, want %d", i, len(row), d))
		}
	}
	return nil
}

// Category 是一组情绪标签构成的主题类别，类别之间可以重叠。
type Category struct {
	Name     string   `yaml:"name" json:"name"`
	Emotions []string `yaml:"emotions" json:"emotions"`
}

// Contains 判断类别是否包含 label。
func (c Category) Contains(label string) bool {
	for _, e := range c.Emotions {
		if e == label {
			return true
		}
	}
	return false
}

// Ratio 是配比表中的一项：类别及其权重（[0,1]）。
type Ratio struct {
	Category string  `yaml:"category" json:"category"`
	Weight   float64 `yaml:"weight" json:"weight"`
}

// RatioTable 是有序配比表，按声明顺序处理；权重之和不要求为 1，
// 每一项独立换算为整数名额。
type RatioTable []Ratio
