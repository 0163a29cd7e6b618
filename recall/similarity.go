package recall

import (
	"fmt"
	"math"

	"github.com/rushteam/moodrec/core"
)

// normEpsilon 防止零向量除零。
const normEpsilon = 1e-9

// Normalize 返回 v / (‖v‖₂ + 1e-9)，不修改入参。
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum) + normEpsilon
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// Similarity 计算归一化后的用户向量与每一行（已归一化）的点积，即余弦相似度。
// 返回长度等于 len(matrix)；行维度与用户向量不一致时该行记 0。
func Similarity(matrix [][]float64, user []float64) []float64 {
	u := Normalize(user)
	out := make([]float64, len(matrix))
	for i, row := range matrix {
		if len(row) != len(u) {
			continue
		}
		out[i] = dot(row, u)
	}
	return out
}

// SimilarityChecked 与 Similarity 相同，但维度不一致时返回 INVALID_INPUT。
func SimilarityChecked(matrix [][]float64, user []float64) ([]float64, error) {
	for i, row := range matrix {
		if len(row) != len(user) {
			return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
				fmt.Sprintf("row %d has dimension %d, user vector has %d", i, len(row), len(user)))
		}
	}
	return Similarity(matrix, user), nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
