package recall

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// ContentModel 是基于内容的推荐模型接口，由 engine.Model 实现。
type ContentModel interface {
	// Content 以 liked 中的书目为种子，对未评分书目累加 similarity × rating，返回前 n 个
	Content(liked []core.Rating, rated map[string]struct{}, n int) []core.ScoredID
}

// ContentRecall 是基于内容的召回源（Content-Based Recommendation）。
//
// 核心思想："用户喜欢具有某些特征的物品，推荐具有相似特征的其他物品"
//
// 用户的评分从 RecommendContext.Ratings 读取：
//   - Score >= LikeThreshold 的书目作为种子
//   - 全部已评分书目都不会被召回
type ContentRecall struct {
	Model ContentModel

	// TopK 返回 TopK 个物品，<= 0 时为 20
	TopK int

	// LikeThreshold 认定为"喜欢"的最低评分，<= 0 时为 4
	LikeThreshold int
}

func (r *ContentRecall) Name() string {
	return "recall.content"
}

func (r *ContentRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *ContentRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *ContentRecall) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Model == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	threshold := r.LikeThreshold
	if threshold <= 0 {
		threshold = 4
	}
	liked := rctx.LikedRatings(threshold)
	if len(liked) == 0 {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}
	return scoredToItems(r.Model.Content(liked, rctx.RatedSet(), topK), "content"), nil
}
