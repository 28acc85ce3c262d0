package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rushteam/bookrec/core"
)

// ScoredID 是带分数的书目 ID。
type ScoredID = core.ScoredID

// Model 是一次训练产出的不可变模型：评分矩阵、两套相似度矩阵与索引顺序。
// 训练完成后只读，可被多个查询并发使用；重新训练产出新的 Model，不原地修改。
type Model struct {
	config Config

	ratings *RatingMatrix
	userSim *SimilarityMatrix

	itemIDs    []string
	itemIndex  map[string]int
	vocabulary []string
	itemSim    *SimilarityMatrix

	Version      int64
	TrainedAt    time.Time
	RatingCount  int
	TrainingTime time.Duration
}

// Fit 从数据源读取全部评分与书目，构建一个新的 Model。
// 评分或书目为空时得到对应部分为空的模型，查询返回空列表。
func Fit(ctx context.Context, src core.DataSource, cfg Config) (*Model, error) {
	start := time.Now()
	cfg = cfg.WithDefaults()

	ratings, err := src.AllRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	books, err := src.AllItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := &Model{
		config:      cfg,
		RatingCount: len(ratings),
	}

	m.ratings = BuildRatingMatrix(ratings)
	m.userSim = UserSimilarity(m.ratings)

	docs := make([]string, len(books))
	m.itemIDs = make([]string, len(books))
	m.itemIndex = make(map[string]int, len(books))
	for i := range books {
		docs[i] = books[i].Text()
		m.itemIDs[i] = books[i].ID
		m.itemIndex[books[i].ID] = i
	}
	vec := NewVectorizer(cfg.MaxFeatures)
	m.itemSim = ItemSimilarity(vec.FitTransform(docs))
	m.vocabulary = vec.Vocabulary()

	m.TrainedAt = time.Now()
	m.TrainingTime = time.Since(start)
	return m, nil
}

// Config 返回模型训练时使用的配置。
func (m *Model) Config() Config { return m.config }

// Ratings 返回评分矩阵。
func (m *Model) Ratings() *RatingMatrix { return m.ratings }

// UserSimilarities 返回用户相似度矩阵，下标与 Ratings().UserIDs 对应。
func (m *Model) UserSimilarities() *SimilarityMatrix { return m.userSim }

// ItemSimilarities 返回书目相似度矩阵，下标与 ItemIDs() 对应。
func (m *Model) ItemSimilarities() *SimilarityMatrix { return m.itemSim }

// ItemIDs 返回内容模型的书目顺序。
func (m *Model) ItemIDs() []string { return m.itemIDs }

// Vocabulary 返回文本特征词表。
func (m *Model) Vocabulary() []string { return m.vocabulary }

// Empty 表示模型没有任何可用数据。
func (m *Model) Empty() bool {
	return m.ratings.Users() == 0 && len(m.itemIDs) == 0
}

// Collaborative 基于用户的协同过滤：为目标用户未评分的书目预测评分，返回前 n 个。
//
//  1. 候选 = 目标用户行中为 0 的列
//  2. 其他用户按相似度降序取前 NeighborCount 个，且相似度 > MinNeighborSimilarity
//  3. 预测分 = Σ(sim × rating) / Σ sim，只统计真正评过该书的近邻；没有近邻评过的书目丢弃
//  4. 按预测分降序，分数相同保持列顺序
//
// 未知用户或没有相似度模型时返回空列表。n <= 0 表示不截断。
func (m *Model) Collaborative(userID string, n int) []ScoredID {
	u, ok := m.ratings.UserIndex(userID)
	if !ok || m.userSim.Len() == 0 {
		return nil
	}

	neighbors := m.neighbors(u)
	if len(neighbors) == 0 {
		return nil
	}

	scored := make([]ScoredID, 0)
	for j := 0; j < m.ratings.Books(); j++ {
		if m.ratings.Rated(u, j) {
			continue
		}
		var weighted, total float64
		contributors := 0
		for _, v := range neighbors {
			if !m.ratings.Rated(v, j) {
				continue
			}
			sim := m.userSim.At(u, v)
			weighted += sim * m.ratings.At(v, j)
			total += sim
			contributors++
		}
		if contributors == 0 || total == 0 {
			continue
		}
		scored = append(scored, ScoredID{ID: m.ratings.BookIDs[j], Score: weighted / total})
	}
	return topN(scored, n)
}

// neighbors 返回目标用户的近邻下标，按相似度降序。
func (m *Model) neighbors(u int) []int {
	row := m.userSim.Row(u)
	others := make([]int, 0, len(row))
	for v := range row {
		if v != u {
			others = append(others, v)
		}
	}
	sort.SliceStable(others, func(a, b int) bool {
		return row[others[a]] > row[others[b]]
	})
	if len(others) > m.config.NeighborCount {
		others = others[:m.config.NeighborCount]
	}
	out := others[:0]
	for _, v := range others {
		if row[v] > m.config.MinNeighborSimilarity {
			out = append(out, v)
		}
	}
	return out
}

// Content 基于内容的推荐：对每本喜欢的书目，取其相似度行，
// 把 similarity × rating 累加到每本未评分的其他书目上（累加而非平均），返回前 n 个。
//
// liked 为空时返回空列表；rated 是用户全部已评分书目。
// 分数相同按首次累加的顺序。n <= 0 表示不截断。
func (m *Model) Content(liked []core.Rating, rated map[string]struct{}, n int) []ScoredID {
	if len(liked) == 0 || m.itemSim.Len() == 0 {
		return nil
	}

	acc := make(map[string]int)
	scored := make([]ScoredID, 0)
	for _, r := range liked {
		idx, ok := m.itemIndex[r.BookID]
		if !ok {
			continue
		}
		for k, sim := range m.itemSim.Row(idx) {
			if k == idx {
				continue
			}
			id := m.itemIDs[k]
			if _, ok := rated[id]; ok {
				continue
			}
			pos, ok := acc[id]
			if !ok {
				pos = len(scored)
				acc[id] = pos
				scored = append(scored, ScoredID{ID: id})
			}
			scored[pos].Score += sim * float64(r.Score)
		}
	}
	return topN(scored, n)
}

// SimilarItems 返回与书目最相似的 n 本其他书目及原始相似度。
// 结果不包含书目自身；未知书目返回空列表。n <= 0 表示不截断。
func (m *Model) SimilarItems(bookID string, n int) []ScoredID {
	idx, ok := m.itemIndex[bookID]
	if !ok {
		return nil
	}
	row := m.itemSim.Row(idx)
	scored := make([]ScoredID, 0, len(row))
	for k, sim := range row {
		if k == idx {
			continue
		}
		scored = append(scored, ScoredID{ID: m.itemIDs[k], Score: sim})
	}
	return topN(scored, n)
}

// topN 按分数稳定降序排序并截断。
func topN(scored []ScoredID, n int) []ScoredID {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}
