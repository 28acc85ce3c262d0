package builders

import (
	"fmt"
	"math"
	"time"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/engine"
	"github.com/rushteam/bookrec/feature"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/conv"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("filter.rated", BuildRatedFilterNode)
	config.Register("filter.expr", BuildExprFilterNode)
	config.Register("filter.blacklist", BuildBlacklistFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
}

// RegisterEngine 注册依赖引擎的节点：recall.hybrid、recall.cf、recall.content、feature.enrich。
// 召回节点读取 e.Live()，重新训练后无需重建 Pipeline。
func RegisterEngine(e *engine.Engine) {
	live := e.Live()
	cfg := e.Config()
	src := e.Source()

	config.Register("feature.enrich", func(c map[string]interface{}) (pipeline.Node, error) {
		return &feature.EnrichNode{
			Source:            src,
			ItemFeaturePrefix: conv.ConfigGet(c, "item_feature_prefix", ""),
			DropMissing:       conv.ConfigGet(c, "drop_missing", false),
		}, nil
	})

	config.Register("recall.hybrid", func(c map[string]interface{}) (pipeline.Node, error) {
		return BuildHybridNode(live, cfg, c)
	})
	config.Register("recall.cf", func(c map[string]interface{}) (pipeline.Node, error) {
		return &recall.UserBasedCF{
			Model:     live,
			TopKItems: int(conv.ConfigGetInt64(c, "top_k", int64(cfg.DefaultN*cfg.CandidateMultiplier))),
		}, nil
	})
	config.Register("recall.content", func(c map[string]interface{}) (pipeline.Node, error) {
		return &recall.ContentRecall{
			Model:         live,
			TopK:          int(conv.ConfigGetInt64(c, "top_k", int64(cfg.DefaultN*cfg.CandidateMultiplier))),
			LikeThreshold: int(conv.ConfigGetInt64(c, "like_threshold", int64(cfg.LikeThreshold))),
		}, nil
	})
}

// HybridModel 同时提供协同过滤与内容召回。
type HybridModel interface {
	recall.CFModel
	recall.ContentModel
}

// BuildHybridNode 构建协同过滤 + 内容的 Fanout，默认按名次融合。
//
//	- type: recall.hybrid
//	  config:
//	    alpha: 0.7        # 协同过滤权重，内容为 1-alpha
//	    top_k: 20         # 每路候选数
//	    timeout: 2        # 秒
//	    merge_strategy: rank_position   # first | union | priority | rank_position
func BuildHybridNode(m HybridModel, cfg engine.Config, c map[string]interface{}) (pipeline.Node, error) {
	alpha, err := conv.ConfigGetFloat64(c, "alpha", cfg.DefaultAlpha)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("alpha must be within [0, 1], got %v", alpha)
	}
	merge, err := mergeStrategy(c, alpha)
	if err != nil {
		return nil, err
	}
	topK := int(conv.ConfigGetInt64(c, "top_k", int64(cfg.DefaultN*cfg.CandidateMultiplier)))

	fanout := &recall.Fanout{
		Sources: []recall.Source{
			&recall.UserBasedCF{Model: m, TopKItems: topK},
			&recall.ContentRecall{Model: m, TopK: topK, LikeThreshold: cfg.LikeThreshold},
		},
		Dedup:         true,
		MergeStrategy: merge,
	}
	if sec := conv.ConfigGetInt64(c, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt64(c, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = int(n)
	}
	return fanout, nil
}

// mergeStrategy 按 merge_strategy 选择合并方式；只有 rank_position 使用 alpha。
func mergeStrategy(c map[string]interface{}, alpha float64) (recall.MergeStrategy, error) {
	switch name := conv.ConfigGet(c, "merge_strategy", "rank_position"); name {
	case "rank_position", "":
		return &recall.RankPositionMergeStrategy{Weights: []float64{alpha, 1 - alpha}}, nil
	case "first":
		return &recall.FirstMergeStrategy{}, nil
	case "union":
		return &recall.UnionMergeStrategy{}, nil
	case "priority":
		return &recall.PriorityMergeStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown merge_strategy: %s", name)
	}
}

func BuildRatedFilterNode(_ map[string]interface{}) (pipeline.Node, error) {
	return &filter.FilterNode{Filters: []filter.Filter{filter.NewRatedFilter()}}, nil
}

func BuildExprFilterNode(c map[string]interface{}) (pipeline.Node, error) {
	f, err := buildExprFilter(c)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

func BuildBlacklistFilterNode(c map[string]interface{}) (pipeline.Node, error) {
	ids := conv.SliceAnyToString(c["book_ids"])
	return &filter.FilterNode{Filters: []filter.Filter{filter.NewBlacklistFilter(ids, nil, "")}}, nil
}

func buildExprFilter(c map[string]interface{}) (*filter.ExprFilter, error) {
	expr := conv.ConfigGet(c, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("expr not found")
	}
	return filter.NewExprFilter(expr, conv.ConfigGet(c, "invert", false))
}

// BuildFilterNode 组合多个过滤器：
//
//	- type: filter
//	  config:
//	    strict: false     # 过滤器出错时是否中断请求
//	    filters:
//	      - type: rated
//	      - type: expr
//	        expr: 'book.genre == "Horror"'
//	      - type: blacklist
//	        book_ids: ["b7"]
func BuildFilterNode(c map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := c["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	strict := conv.ConfigGet(c, "strict", false)
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "rated":
			filters = append(filters, filter.NewRatedFilter())
		case "expr":
			f, err := buildExprFilter(filterMap)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		case "blacklist":
			ids := conv.SliceAnyToString(filterMap["book_ids"])
			filters = append(filters, filter.NewBlacklistFilter(ids, nil, ""))
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters, Strict: strict}, nil
}

func BuildTopNNode(c map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(c, "n", 0))}, nil
}

func BuildDiversityNode(c map[string]interface{}) (pipeline.Node, error) {
	key := conv.ConfigGet(c, "key", "genre")
	if key == "" {
		key = "genre"
	}
	return &rerank.Diversity{
		Key:          key,
		MaxPerGroup:  int(conv.ConfigGetInt64(c, "max_per_group", 1)),
		DropOverflow: conv.ConfigGet(c, "drop_overflow", false),
	}, nil
}
