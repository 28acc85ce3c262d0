package core

import "context"

// DataSource 是推荐引擎消费的只读数据源（领域接口）。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 引擎只读，不写入；评分校验、去重、平均分维护由实现方负责
//   - 空数据不是错误：返回空切片即可
//
// 实现：
//   - store.CatalogAdapter（基于 core.Store：内存 / Redis）
//   - store.SQLiteSource
//   - store.MongoSource
type DataSource interface {
	// Name 返回数据源名称（用于日志/监控）
	Name() string

	// AllRatings 返回全部评分
	AllRatings(ctx context.Context) ([]Rating, error)

	// AllItems 返回全部书目，顺序即内容模型的行顺序
	AllItems(ctx context.Context) ([]Book, error)

	// RatingsForUser 返回用户评分中 Score >= minScore 的部分；minScore <= 0 表示全部
	RatingsForUser(ctx context.Context, userID string, minScore int) ([]Rating, error)

	// ItemByID 读取单本书目；不存在时返回 ErrBookNotFound
	ItemByID(ctx context.Context, bookID string) (*Book, error)
}
