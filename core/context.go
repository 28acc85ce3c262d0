package core

import (
	"time"

	"github.com/rushteam/bookrec/pkg/utils"
)

// RecommendContext 承载用户/场景/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID    string
	RequestID string // 用于日志串联，未设置时由引擎生成
	Scene     string // hybrid / similar

	// Ratings 是用户当前的全部评分（来自 DataSource.RatingsForUser）。
	// 内容召回用它找出高分书目，过滤节点用它剔除已评分书目。
	Ratings []Rating

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级参数，例如 n、alpha
	Params map[string]any

	// Trace 由 Pipeline.Run 按节点顺序追加
	Trace []NodeTrace
}

// NodeTrace 记录一个节点的执行情况。
type NodeTrace struct {
	Node     string        `json:"node"`
	Kind     string        `json:"kind"`
	In       int           `json:"in"`
	Out      int           `json:"out"`
	Duration time.Duration `json:"duration"`
}

// RatedSet 返回用户已评分书目的集合。
func (rctx *RecommendContext) RatedSet() map[string]struct{} {
	rated := make(map[string]struct{}, len(rctx.Ratings))
	for _, r := range rctx.Ratings {
		rated[r.BookID] = struct{}{}
	}
	return rated
}

// LikedRatings 返回 Score >= threshold 的评分，保持原有顺序。
func (rctx *RecommendContext) LikedRatings(threshold int) []Rating {
	liked := make([]Rating, 0, len(rctx.Ratings))
	for _, r := range rctx.Ratings {
		if r.Score >= threshold {
			liked = append(liked, r)
		}
	}
	return liked
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
