package engine

import (
	"fmt"

	"github.com/rushteam/bookrec/core"
)

// Config 是推荐引擎的可调参数。零值字段在 WithDefaults 中补默认值。
type Config struct {
	// MaxFeatures 文本特征词表上限（K）
	MaxFeatures int `yaml:"max_features" json:"max_features" koanf:"max_features"`

	// NeighborCount 协同过滤使用的近邻数
	NeighborCount int `yaml:"neighbor_count" json:"neighbor_count" koanf:"neighbor_count"`

	// MinNeighborSimilarity 近邻相似度必须严格大于该值
	MinNeighborSimilarity float64 `yaml:"min_neighbor_similarity" json:"min_neighbor_similarity" koanf:"min_neighbor_similarity"`

	// LikeThreshold 内容召回中认定为"喜欢"的最低评分
	LikeThreshold int `yaml:"like_threshold" json:"like_threshold" koanf:"like_threshold"`

	// DefaultN 混合推荐默认返回条数
	DefaultN int `yaml:"default_n" json:"default_n" koanf:"default_n"`

	// DefaultSimilarN 相似书目默认返回条数
	DefaultSimilarN int `yaml:"default_similar_n" json:"default_similar_n" koanf:"default_similar_n"`

	// DefaultAlpha 协同过滤权重默认值（内容权重为 1-alpha）。
	// 只在调用方传入负数 alpha 时使用，alpha=0 是合法取值。
	DefaultAlpha float64 `yaml:"default_alpha" json:"default_alpha" koanf:"default_alpha"`

	// CandidateMultiplier 每路召回的候选数 = n × CandidateMultiplier
	CandidateMultiplier int `yaml:"candidate_multiplier" json:"candidate_multiplier" koanf:"candidate_multiplier"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	d := &core.DefaultRecallConfig{}
	return Config{
		MaxFeatures:           d.DefaultMaxFeatures(),
		NeighborCount:         d.DefaultNeighborCount(),
		MinNeighborSimilarity: d.DefaultMinNeighborSimilarity(),
		LikeThreshold:         d.DefaultLikeThreshold(),
		DefaultN:              d.DefaultTopKItems(),
		DefaultSimilarN:       d.DefaultSimilarItems(),
		DefaultAlpha:          d.DefaultAlpha(),
		CandidateMultiplier:   2,
	}
}

// WithDefaults 返回补齐默认值后的副本。
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.MaxFeatures <= 0 {
		c.MaxFeatures = d.MaxFeatures
	}
	if c.NeighborCount <= 0 {
		c.NeighborCount = d.NeighborCount
	}
	if c.LikeThreshold <= 0 {
		c.LikeThreshold = d.LikeThreshold
	}
	if c.DefaultN <= 0 {
		c.DefaultN = d.DefaultN
	}
	if c.DefaultSimilarN <= 0 {
		c.DefaultSimilarN = d.DefaultSimilarN
	}
	if c.DefaultAlpha <= 0 {
		c.DefaultAlpha = d.DefaultAlpha
	}
	if c.CandidateMultiplier <= 0 {
		c.CandidateMultiplier = d.CandidateMultiplier
	}
	return c
}

// Validate 校验补齐默认值之后的配置。
func (c Config) Validate() error {
	if c.DefaultAlpha < 0 || c.DefaultAlpha > 1 {
		return fmt.Errorf("default_alpha must be within [0, 1], got %v", c.DefaultAlpha)
	}
	if c.MinNeighborSimilarity < -1 || c.MinNeighborSimilarity >= 1 {
		return fmt.Errorf("min_neighbor_similarity must be within [-1, 1), got %v", c.MinNeighborSimilarity)
	}
	if c.LikeThreshold > core.MaxScore {
		return fmt.Errorf("like_threshold must be <= %d, got %d", core.MaxScore, c.LikeThreshold)
	}
	return nil
}
