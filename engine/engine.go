package engine

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
)

const (
	SceneHybrid  = "hybrid"
	SceneSimilar = "similar"
)

// Engine 持有"当前模型"的引用：查询并发读取，训练产出新模型后原子替换。
//
// 第一次查询时如果还没有模型，会自动训练一次（并发的首次查询只训练一次）。
// 之后新增的评分不会自动生效，直到再次调用 Train。
type Engine struct {
	src     core.DataSource
	cfg     Config
	logger  zerolog.Logger
	metrics *Metrics

	current atomic.Pointer[Model]
	version atomic.Int64
	group   singleflight.Group
}

// Option 配置 Engine。
type Option func(*Engine)

// WithMetrics 设置 Prometheus 指标。
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New 创建引擎，不做训练。
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(src core.DataSource, cfg Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if src == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: data source is required")
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: invalid config").WithCause(err)
	}
	e := &Engine{
		src:    src,
		cfg:    cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Source 返回引擎读取的数据源。
func (e *Engine) Source() core.DataSource { return e.src }

// Config 返回补齐默认值后的配置。
func (e *Engine) Config() Config { return e.cfg }

// Train 从数据源重新训练并替换当前模型。
// 失败时保留旧模型；数据为空不是错误，得到一个所有查询都返回空列表的模型。
func (e *Engine) Train(ctx context.Context) error {
	_, err, _ := e.group.Do("train", func() (interface{}, error) {
		return e.train(ctx)
	})
	return err
}

func (e *Engine) train(ctx context.Context) (*Model, error) {
	start := time.Now()
	m, err := Fit(ctx, e.src, e.cfg)
	if e.metrics != nil {
		e.metrics.TrainDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if e.metrics != nil {
			e.metrics.TrainTotal.WithLabelValues("error").Inc()
		}
		e.logger.Error().Err(err).Str("source", e.src.Name()).Msg("training failed")
		return nil, fmt.Errorf("train: %w", err)
	}

	m.Version = e.version.Add(1)
	e.current.Store(m)

	if m.RatingCount == 0 {
		e.logger.Warn().Msg("no ratings found for training")
	}
	if len(m.itemIDs) == 0 {
		e.logger.Warn().Msg("no books found for training")
	}
	e.logger.Info().
		Int("users", m.ratings.Users()).
		Int("books", len(m.itemIDs)).
		Int("ratings", m.RatingCount).
		Int("vocabulary", len(m.vocabulary)).
		Int64("duration_ms", m.TrainingTime.Milliseconds()).
		Int64("model_version", m.Version).
		Msg("model training complete")

	if e.metrics != nil {
		e.metrics.TrainTotal.WithLabelValues("ok").Inc()
		e.metrics.observeModel(m)
	}
	return m, nil
}

// Current 返回当前模型，不触发训练；从未训练过时返回 core.ErrNotTrained。
func (e *Engine) Current() (*Model, error) {
	if m := e.current.Load(); m != nil {
		return m, nil
	}
	return nil, core.ErrNotTrained
}

// Model 返回当前模型；从未训练过时先训练一次。
func (e *Engine) Model(ctx context.Context) (*Model, error) {
	if m := e.current.Load(); m != nil {
		return m, nil
	}
	v, err, _ := e.group.Do("train", func() (interface{}, error) {
		// 等待期间可能已经有别的调用训练完成
		if m := e.current.Load(); m != nil {
			return m, nil
		}
		e.logger.Info().Msg("no model yet, training on first use")
		// 共享的首次训练不跟随单个调用方的取消
		return e.train(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

// HybridPipeline 构建混合推荐链路：
//
//	Fanout(协同过滤 n×k, 内容 n×k, 按名次融合 alpha / 1-alpha) → 去掉已评分 → TopN(n)
//
// k 为 CandidateMultiplier（默认 2）。
func (e *Engine) HybridPipeline(m *Model, n int, alpha float64) *pipeline.Pipeline {
	pool := n * e.cfg.CandidateMultiplier
	return &pipeline.Pipeline{
		Name: SceneHybrid,
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: []recall.Source{
					&recall.UserBasedCF{Model: m, TopKItems: pool},
					&recall.ContentRecall{Model: m, TopK: pool, LikeThreshold: e.cfg.LikeThreshold},
				},
				Dedup:         true,
				MergeStrategy: &recall.RankPositionMergeStrategy{Weights: []float64{alpha, 1 - alpha}},
				OnError: func(source string, err error) {
					e.logger.Warn().Err(err).Str("scorer", source).Msg("scorer failed, fusing without it")
				},
			},
			&filter.FilterNode{Filters: []filter.Filter{filter.NewRatedFilter()}},
			&rerank.TopNNode{N: n},
		},
	}
}

// HybridRecommendations 返回融合后的前 n 本书（附带书目平均分，不含预测分）。
//
// n <= 0 使用 DefaultN；alpha < 0 使用 DefaultAlpha；alpha > 1 或 NaN 返回 INVALID_INPUT。
// 未知用户或没有评分的用户得到空列表。结果从不包含用户已评分的书目。
func (e *Engine) HybridRecommendations(ctx context.Context, userID string, n int, alpha float64) (books []core.Book, err error) {
	start := time.Now()
	defer func() {
		e.metrics.observeRequest(SceneHybrid, time.Since(start).Seconds(), len(books), err)
	}()

	if n <= 0 {
		n = e.cfg.DefaultN
	}
	if alpha < 0 {
		alpha = e.cfg.DefaultAlpha
	}
	if math.IsNaN(alpha) || alpha > 1 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			fmt.Sprintf("engine: alpha must be within [0, 1], got %v", alpha))
	}

	m, err := e.Model(ctx)
	if err != nil {
		return nil, err
	}
	params := map[string]any{"n": n, "alpha": alpha, "model_version": m.Version}
	return e.Recommend(ctx, userID, e.HybridPipeline(m, n, alpha), params)
}

// Recommend 为用户运行任意推荐链路（例如由配置构建的 Pipeline），并解析为书目记录。
// 用户的全部评分会写入 rctx.Ratings 供召回与过滤使用。
func (e *Engine) Recommend(ctx context.Context, userID string, p *pipeline.Pipeline, params map[string]any) ([]core.Book, error) {
	ratings, err := e.src.RatingsForUser(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("load ratings for %s: %w", userID, err)
	}

	rctx := &core.RecommendContext{
		UserID:    userID,
		RequestID: uuid.NewString(),
		Scene:     SceneHybrid,
		Ratings:   ratings,
		Params:    params,
	}
	log := e.logger.With().Str("request_id", rctx.RequestID).Str("user_id", userID).Logger()

	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("recommend pipeline failed")
		return nil, err
	}

	books, err := e.resolve(ctx, items)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Interface("params", params).
		Int("rated", len(ratings)).
		Int("results", len(books)).
		Interface("trace", rctx.Trace).
		Msg("recommendations")
	return books, nil
}

// SimilarBooks 返回与 bookID 最相似的前 n 本书及原始相似度，不包含书目自身。
// n <= 0 使用 DefaultSimilarN；未知书目得到空列表。
func (e *Engine) SimilarBooks(ctx context.Context, bookID string, n int) (out []core.SimilarBook, err error) {
	start := time.Now()
	defer func() {
		e.metrics.observeRequest(SceneSimilar, time.Since(start).Seconds(), len(out), err)
	}()

	if n <= 0 {
		n = e.cfg.DefaultSimilarN
	}
	m, err := e.Model(ctx)
	if err != nil {
		return nil, err
	}

	scored := m.SimilarItems(bookID, n)
	out = make([]core.SimilarBook, 0, len(scored))
	for _, s := range scored {
		b, err := e.src.ItemByID(ctx, s.ID)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, core.SimilarBook{Book: *b, Similarity: s.Score})
	}
	e.logger.Debug().
		Str("book_id", bookID).
		Int("n", n).
		Int("results", len(out)).
		Msg("similar books")
	return out, nil
}

// resolve 按顺序把 Item 解析为书目记录；训练之后被删除的书目跳过。
func (e *Engine) resolve(ctx context.Context, items []*core.Item) ([]core.Book, error) {
	books := make([]core.Book, 0, len(items))
	for _, it := range items {
		b, err := e.src.ItemByID(ctx, it.ID)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		it.PutBookMeta(b)
		books = append(books, *b)
	}
	return books, nil
}

// RunRetrainLoop 每隔 interval 重新训练一次，直到 ctx 结束。
// interval <= 0 时不做任何事，模型保持到下一次显式 Train。
func (e *Engine) RunRetrainLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info().Dur("interval", interval).Msg("periodic retraining enabled")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := e.Train(ctx); err != nil {
				e.logger.Warn().Err(err).Msg("scheduled training failed")
			}
		}
	}
}
