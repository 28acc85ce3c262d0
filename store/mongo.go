package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/rushteam/bookrec/core"
)

// MongoOptions 是 MongoSource 的连接参数。
type MongoOptions struct {
	URI      string `yaml:"uri" koanf:"uri"`
	Database string `yaml:"database" koanf:"database"`
}

// MongoSource 是基于 MongoDB 的 core.DataSource。
//
// 集合：
//   - books：core.Book（_id 为书目 ID）+ seq
//   - ratings：user_id / book_id / rating / seq，(user_id, book_id) 唯一
//   - counters：seq 自增序号
type MongoSource struct {
	client   *mongo.Client
	books    *mongo.Collection
	ratings  *mongo.Collection
	counters *mongo.Collection
}

var _ core.DataSource = (*MongoSource)(nil)

type mongoBook struct {
	core.Book `bson:",inline"`
	Seq       int64 `bson:"seq"`
}

type mongoRating struct {
	core.Rating `bson:",inline"`
	Seq         int64 `bson:"seq"`
}

// OpenMongo 连接并 Ping，随后创建索引。
func OpenMongo(ctx context.Context, opts MongoOptions) (*MongoSource, error) {
	if opts.URI == "" {
		return nil, core.NewDomainError(core.ModuleSource, core.ErrorCodeInvalidInput, "source: mongo uri is required")
	}
	if opts.Database == "" {
		opts.Database = "bookrec"
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	client, err := mongo.Connect(options.Client().ApplyURI(opts.URI).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, core.NewDomainError(core.ModuleSource, core.ErrorCodeUnavailable, "source: mongo unavailable").WithCause(err)
	}

	s := NewMongoSource(client, opts.Database)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// NewMongoSource 使用已有客户端。
func NewMongoSource(client *mongo.Client, database string) *MongoSource {
	db := client.Database(database)
	return &MongoSource{
		client:   client,
		books:    db.Collection("books"),
		ratings:  db.Collection("ratings"),
		counters: db.Collection("counters"),
	}
}

func (s *MongoSource) Name() string { return "mongo" }

// EnsureIndexes 创建评分唯一索引与排序索引。
func (s *MongoSource) EnsureIndexes(ctx context.Context) error {
	_, err := s.ratings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "book_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "book_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: ratings indexes: %w", err)
	}
	if _, err := s.books.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "seq", Value: 1}}}); err != nil {
		return fmt.Errorf("mongo: books indexes: %w", err)
	}
	return nil
}

func (s *MongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoSource) nextSeq(ctx context.Context) (int64, error) {
	var out struct {
		Value int64 `bson:"value"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: "seq"}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "value", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return 0, fmt.Errorf("mongo: next seq: %w", err)
	}
	return out.Value, nil
}

// AddBook 新增或更新书目，已有书目保留原有顺序与平均分。
func (s *MongoSource) AddBook(ctx context.Context, b core.Book) error {
	if b.ID == "" {
		return core.NewDomainError(core.ModuleSource, core.ErrorCodeInvalidInput, "source: book id is required")
	}
	seq, err := s.nextSeq(ctx)
	if err != nil {
		return err
	}
	_, err = s.books.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: b.ID}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "title", Value: b.Title},
				{Key: "author", Value: b.Author},
				{Key: "genre", Value: b.Genre},
				{Key: "description", Value: b.Description},
				{Key: "year", Value: b.Year},
			}},
			{Key: "$setOnInsert", Value: bson.D{
				{Key: "seq", Value: seq},
				{Key: "average_rating", Value: b.AverageRating},
			}},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo: add book %s: %w", b.ID, err)
	}
	return nil
}

// Rate 记录评分（覆盖旧值）并刷新书目平均分。
func (s *MongoSource) Rate(ctx context.Context, userID, bookID string, score int) error {
	if !core.ValidScore(score) {
		return core.ErrInvalidScore
	}
	if _, err := s.ItemByID(ctx, bookID); err != nil {
		return err
	}
	seq, err := s.nextSeq(ctx)
	if err != nil {
		return err
	}
	_, err = s.ratings.UpdateOne(ctx,
		bson.D{{Key: "user_id", Value: userID}, {Key: "book_id", Value: bookID}},
		bson.D{
			{Key: "$set", Value: bson.D{{Key: "rating", Value: score}}},
			{Key: "$setOnInsert", Value: bson.D{{Key: "seq", Value: seq}}},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo: rate %s/%s: %w", userID, bookID, err)
	}

	cursor, err := s.ratings.Find(ctx, bson.D{{Key: "book_id", Value: bookID}})
	if err != nil {
		return fmt.Errorf("mongo: ratings of %s: %w", bookID, err)
	}
	var docs []mongoRating
	if err := cursor.All(ctx, &docs); err != nil {
		return fmt.Errorf("mongo: decode ratings of %s: %w", bookID, err)
	}
	ratings := make([]core.Rating, len(docs))
	for i := range docs {
		ratings[i] = docs[i].Rating
	}
	_, err = s.books.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: bookID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "average_rating", Value: core.AverageRating(ratings)}}}},
	)
	return err
}

func (s *MongoSource) AllRatings(ctx context.Context) ([]core.Rating, error) {
	return s.findRatings(ctx, bson.D{})
}

func (s *MongoSource) RatingsForUser(ctx context.Context, userID string, minScore int) ([]core.Rating, error) {
	filter := bson.D{{Key: "user_id", Value: userID}}
	if minScore > 0 {
		filter = append(filter, bson.E{Key: "rating", Value: bson.D{{Key: "$gte", Value: minScore}}})
	}
	return s.findRatings(ctx, filter)
}

func (s *MongoSource) findRatings(ctx context.Context, filter bson.D) ([]core.Rating, error) {
	cursor, err := s.ratings.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: find ratings: %w", err)
	}
	var docs []mongoRating
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode ratings: %w", err)
	}
	ratings := make([]core.Rating, len(docs))
	for i := range docs {
		ratings[i] = docs[i].Rating
	}
	return ratings, nil
}

func (s *MongoSource) AllItems(ctx context.Context) ([]core.Book, error) {
	cursor, err := s.books.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: find books: %w", err)
	}
	var docs []mongoBook
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode books: %w", err)
	}
	books := make([]core.Book, len(docs))
	for i := range docs {
		books[i] = docs[i].Book
	}
	return books, nil
}

func (s *MongoSource) ItemByID(ctx context.Context, bookID string) (*core.Book, error) {
	var doc mongoBook
	err := s.books.FindOne(ctx, bson.D{{Key: "_id", Value: bookID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", core.ErrBookNotFound, bookID)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find book %s: %w", bookID, err)
	}
	return &doc.Book, nil
}
