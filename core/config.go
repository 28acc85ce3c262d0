package core

// RecallConfig 是召回相关的配置接口，用于提供默认值。
type RecallConfig interface {
	// DefaultNeighborCount 返回协同过滤默认使用的近邻数
	DefaultNeighborCount() int

	// DefaultMinNeighborSimilarity 返回近邻的相似度下限（严格大于）
	DefaultMinNeighborSimilarity() float64

	// DefaultLikeThreshold 返回内容召回认定为"喜欢"的最低评分
	DefaultLikeThreshold() int

	// DefaultMaxFeatures 返回文本特征的词表上限
	DefaultMaxFeatures() int

	// DefaultTopKItems 返回默认的 TopK 物品数
	DefaultTopKItems() int

	// DefaultSimilarItems 返回 "more like this" 的默认条数
	DefaultSimilarItems() int

	// DefaultAlpha 返回混合推荐中协同过滤的默认权重
	DefaultAlpha() float64
}

// DefaultRecallConfig 是默认的召回配置实现。
type DefaultRecallConfig struct{}

func (c *DefaultRecallConfig) DefaultNeighborCount() int {
	return 10
}

func (c *DefaultRecallConfig) DefaultMinNeighborSimilarity() float64 {
	return 0
}

func (c *DefaultRecallConfig) DefaultLikeThreshold() int {
	return 4
}

func (c *DefaultRecallConfig) DefaultMaxFeatures() int {
	return 100
}

func (c *DefaultRecallConfig) DefaultTopKItems() int {
	return 10
}

func (c *DefaultRecallConfig) DefaultSimilarItems() int {
	return 5
}

func (c *DefaultRecallConfig) DefaultAlpha() float64 {
	return 0.5
}
