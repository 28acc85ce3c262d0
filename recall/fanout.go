package recall

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
// 支持超时、限流与可插拔的合并策略。
//
// 各召回源的结果按 Sources 的下标归组后再交给 MergeStrategy，
// 因此合并结果与召回源的完成顺序无关。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy MergeStrategy // 为空时使用 FirstMergeStrategy

	// OnError 在某个召回源失败或超时时调用（该召回源按空结果参与合并）
	OnError func(source string, err error)
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	groups := make([][]*core.Item, len(n.Sources))
	eg, _ := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		eg.Go(func() error {
			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				if n.OnError != nil {
					n.OnError(src.Name(), err)
				}
				return nil
			}

			// 记录召回优先级 label，方便 explain / 观测
			for _, it := range items {
				it.PutLabel(utils.LabelRecallPriority, utils.Label{Value: strconv.Itoa(i), Source: "recall"})
			}
			groups[i] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	strategy := n.MergeStrategy
	if strategy == nil {
		strategy = &FirstMergeStrategy{}
	}
	return strategy.Merge(groups, n.Dedup), nil
}
