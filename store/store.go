// Package store 提供 core.Store / core.KeyValueStore 的实现，
// 以及基于它们的书目数据源 CatalogAdapter。
//
// 数据源（core.DataSource）实现：
//   - CatalogAdapter：任意 KeyValueStore（内存 / Redis）
//   - SQLiteSource：嵌入式 SQLite
//   - MongoSource：MongoDB
//
// 示例：
//
//	kv := store.NewMemoryStore()
//	src := store.NewCatalogAdapter(kv, "bookrec")
package store
