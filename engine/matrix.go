package engine

import (
	"github.com/rushteam/bookrec/core"
	"gonum.org/v1/gonum/mat"
)

// RatingMatrix 是稠密的 user×book 评分矩阵，缺失评分填 0。
//
// 行顺序 = 评分中首次出现的用户顺序；列顺序 = 首次出现的书目顺序。
// 训练完成后两种顺序在模型生命周期内不变。
// 是否评分由独立的 present 标记决定，不依赖数值 0。
type RatingMatrix struct {
	UserIDs []string
	BookIDs []string
	// Values 在没有任何评分时为 nil（gonum 不允许 0×0 矩阵）。
	Values *mat.Dense

	present   []bool
	userIndex map[string]int
	bookIndex map[string]int
}

// BuildRatingMatrix 把评分三元组转换成评分矩阵。
// 输入为空时返回空矩阵（不是错误）。同一 (user, book) 出现多次时后者覆盖前者。
func BuildRatingMatrix(ratings []core.Rating) *RatingMatrix {
	m := &RatingMatrix{
		UserIDs:   make([]string, 0),
		BookIDs:   make([]string, 0),
		userIndex: make(map[string]int),
		bookIndex: make(map[string]int),
	}
	for _, r := range ratings {
		if _, ok := m.userIndex[r.UserID]; !ok {
			m.userIndex[r.UserID] = len(m.UserIDs)
			m.UserIDs = append(m.UserIDs, r.UserID)
		}
		if _, ok := m.bookIndex[r.BookID]; !ok {
			m.bookIndex[r.BookID] = len(m.BookIDs)
			m.BookIDs = append(m.BookIDs, r.BookID)
		}
	}
	if len(ratings) == 0 {
		return m
	}

	users, books := len(m.UserIDs), len(m.BookIDs)
	m.Values = mat.NewDense(users, books, nil)
	m.present = make([]bool, users*books)
	for _, r := range ratings {
		i, j := m.userIndex[r.UserID], m.bookIndex[r.BookID]
		m.Values.Set(i, j, float64(r.Score))
		m.present[i*books+j] = true
	}
	return m
}

// UserIndex 返回用户所在行，未知用户返回 false。
func (m *RatingMatrix) UserIndex(userID string) (int, bool) {
	i, ok := m.userIndex[userID]
	return i, ok
}

// BookIndex 返回书目所在列，未知书目返回 false。
func (m *RatingMatrix) BookIndex(bookID string) (int, bool) {
	j, ok := m.bookIndex[bookID]
	return j, ok
}

// Users 返回行数。
func (m *RatingMatrix) Users() int { return len(m.UserIDs) }

// Books 返回列数。
func (m *RatingMatrix) Books() int { return len(m.BookIDs) }

// Rated 判断某个格子是否有评分。
func (m *RatingMatrix) Rated(i, j int) bool {
	return m.present[i*len(m.BookIDs)+j]
}

// At 返回 (i, j) 的评分，未评分为 0。
func (m *RatingMatrix) At(i, j int) float64 {
	return m.Values.At(i, j)
}
