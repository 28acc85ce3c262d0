package recall

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// CFModel 是基于用户的协同过滤模型接口，由 engine.Model 实现。
type CFModel interface {
	// Collaborative 返回目标用户未评分书目的预测评分，按分数降序，最多 n 个
	Collaborative(userID string, n int) []core.ScoredID
}

// UserBasedCF 是基于用户的协同过滤召回源（User-based Collaborative Filtering, User-CF）。
//
// 核心思想："兴趣相似的用户，喜欢相似的物品"
//
// 算法流程（在 engine.Model 中完成）：
//  1. 用户 → 评分向量（未评分为 0）
//  2. 用户间余弦相似度（训练时一次算好）
//  3. 取 TopK 个正相似度近邻
//  4. 对目标用户未评分的书目做相似度加权平均
//
// 在 Bookrec 中的位置：
//  - 混合推荐的协同过滤一路（u2i）
//  - Label：recall_source=cf
type UserBasedCF struct {
	Model CFModel

	// TopKItems 最终返回的 TopK 个物品，<= 0 时为 20
	TopKItems int
}

func (r *UserBasedCF) Name() string {
	return "recall.u2i" // 工业标准命名：u2i (User-to-Item)
}

func (r *UserBasedCF) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *UserBasedCF) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *UserBasedCF) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Model == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	topK := r.TopKItems
	if topK <= 0 {
		topK = 20
	}
	return scoredToItems(r.Model.Collaborative(rctx.UserID, topK), "cf"), nil
}
