package engine

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SimilarityMatrix 是对称的稠密相似度矩阵，取值 [-1, 1]。
type SimilarityMatrix struct {
	values *mat.Dense
}

// Len 返回矩阵维度。
func (s *SimilarityMatrix) Len() int {
	if s == nil || s.values == nil {
		return 0
	}
	n, _ := s.values.Dims()
	return n
}

// At 返回 (i, j) 的相似度。
func (s *SimilarityMatrix) At(i, j int) float64 {
	return s.values.At(i, j)
}

// Row 返回第 i 行（只读，调用方不要修改）。
func (s *SimilarityMatrix) Row(i int) []float64 {
	return s.values.RawRowView(i)
}

// UserSimilarity 计算评分矩阵各行之间的余弦相似度。
// 未评分按 0 参与计算（不是调整余弦）。
// 0 个用户返回空矩阵；1 个用户返回 1×1 单位矩阵。
func UserSimilarity(m *RatingMatrix) *SimilarityMatrix {
	switch m.Users() {
	case 0:
		return &SimilarityMatrix{}
	case 1:
		return &SimilarityMatrix{values: mat.NewDense(1, 1, []float64{1})}
	}
	return pairwiseCosine(m.Values)
}

// ItemSimilarity 计算书目特征向量之间的余弦相似度。
// 全零向量与任何书目的相似度均为 0（包括自身）。
func ItemSimilarity(vectors [][]float64) *SimilarityMatrix {
	if len(vectors) == 0 {
		return &SimilarityMatrix{}
	}
	cols := len(vectors[0])
	if cols == 0 {
		// 空词表：所有向量都是零向量
		n := len(vectors)
		return &SimilarityMatrix{values: mat.NewDense(n, n, nil)}
	}
	rows := mat.NewDense(len(vectors), cols, nil)
	for i, v := range vectors {
		rows.SetRow(i, v)
	}
	return pairwiseCosine(rows)
}

// pairwiseCosine 先把每行做 L2 归一化，再算 A·Aᵀ。
// 零向量行保持为零，因此与任何行的相似度为 0。
// 乘积最后把上三角镜像到下三角，保证严格对称。
func pairwiseCosine(a mat.Matrix) *SimilarityMatrix {
	r, _ := a.Dims()
	normed := mat.DenseCopyOf(a)
	for i := 0; i < r; i++ {
		row := normed.RawRowView(i)
		if l := floats.Norm(row, 2); l > 0 {
			floats.Scale(1/l, row)
		}
	}

	sim := mat.NewDense(r, r, nil)
	sim.Mul(normed, normed.T())
	for i := 0; i < r; i++ {
		for j := i + 1; j < r; j++ {
			sim.Set(j, i, sim.At(i, j))
		}
	}
	return &SimilarityMatrix{values: sim}
}

// CosineSimilarity 计算两个等长向量的余弦相似度，任一为零向量时返回 0。
func CosineSimilarity(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
