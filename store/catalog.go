package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rushteam/bookrec/core"
)

// CatalogAdapter 把 core.KeyValueStore 适配为 core.DataSource，并提供书目 / 评分写入。
//
// Key 约定（prefix 默认 "bookrec"）：
//   - {prefix}:seq                   自增序号，决定书目与评分的先后顺序
//   - {prefix}:books                 ZSET member=bookID score=序号
//   - {prefix}:book:{bookID}         JSON 编码的 core.Book
//   - {prefix}:ratings               ZSET member=userID\x00bookID score=序号
//   - {prefix}:scores                HASH field=userID\x00bookID value=评分
//   - {prefix}:user:{userID}         ZSET member=bookID score=序号
//   - {prefix}:book_scores:{bookID}  HASH field=userID value=评分（维护平均分）
//
// 写入在单进程内串行；多进程共享 Redis 时，写入应由单一进程负责。
type CatalogAdapter struct {
	kv     core.KeyValueStore
	prefix string
	mu     sync.Mutex
}

var _ core.DataSource = (*CatalogAdapter)(nil)

// NewCatalogAdapter 创建目录适配器，keyPrefix 为空时使用 "bookrec"。
func NewCatalogAdapter(kv core.KeyValueStore, keyPrefix string) *CatalogAdapter {
	if keyPrefix == "" {
		keyPrefix = "bookrec"
	}
	return &CatalogAdapter{kv: kv, prefix: keyPrefix}
}

func (a *CatalogAdapter) Name() string { return "catalog." + a.kv.Name() }

func (a *CatalogAdapter) key(parts ...string) string {
	return a.prefix + ":" + strings.Join(parts, ":")
}

func pairKey(userID, bookID string) string { return userID + "\x00" + bookID }

func splitPair(member string) (string, string, bool) {
	return strings.Cut(member, "\x00")
}

func (a *CatalogAdapter) nextSeq(ctx context.Context) (float64, error) {
	var seq int64
	data, err := a.kv.Get(ctx, a.key("seq"))
	switch {
	case err == nil:
		seq, err = strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse seq: %w", err)
		}
	case core.IsStoreNotFound(err):
	default:
		return 0, err
	}
	seq++
	if err := a.kv.Set(ctx, a.key("seq"), []byte(strconv.FormatInt(seq, 10))); err != nil {
		return 0, err
	}
	return float64(seq), nil
}

// AddBook 新增或覆盖书目；新书目追加在末尾，已有书目保持原位置。
// AverageRating 由评分维护：新书目使用调用方传入的值，已有书目保留原值。
func (a *CatalogAdapter) AddBook(ctx context.Context, b core.Book) error {
	if b.ID == "" {
		return core.NewDomainError(core.ModuleSource, core.ErrorCodeInvalidInput, "source: book id is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if old, err := a.ItemByID(ctx, b.ID); err == nil {
		b.AverageRating = old.AverageRating
	} else if !core.IsNotFound(err) {
		return err
	}

	if _, err := a.kv.ZScore(ctx, a.key("books"), b.ID); err != nil {
		if !core.IsStoreNotFound(err) {
			return err
		}
		seq, err := a.nextSeq(ctx)
		if err != nil {
			return err
		}
		if err := a.kv.ZAdd(ctx, a.key("books"), seq, b.ID); err != nil {
			return err
		}
	}
	return a.writeBook(ctx, &b)
}

func (a *CatalogAdapter) writeBook(ctx context.Context, b *core.Book) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode book %s: %w", b.ID, err)
	}
	return a.kv.Set(ctx, a.key("book", b.ID), data)
}

// Rate 记录一条评分：同一 (user, book) 覆盖旧值，并刷新书目平均分。
// 评分必须在 1-5 之间，书目必须存在。不会触发重新训练。
func (a *CatalogAdapter) Rate(ctx context.Context, userID, bookID string, score int) error {
	if !core.ValidScore(score) {
		return core.ErrInvalidScore
	}
	if userID == "" {
		return core.NewDomainError(core.ModuleSource, core.ErrorCodeInvalidInput, "source: user id is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	book, err := a.ItemByID(ctx, bookID)
	if err != nil {
		return err
	}

	pair := pairKey(userID, bookID)
	if _, err := a.kv.ZScore(ctx, a.key("ratings"), pair); err != nil {
		if !core.IsStoreNotFound(err) {
			return err
		}
		seq, err := a.nextSeq(ctx)
		if err != nil {
			return err
		}
		if err := a.kv.ZAdd(ctx, a.key("ratings"), seq, pair); err != nil {
			return err
		}
		if err := a.kv.ZAdd(ctx, a.key("user", userID), seq, bookID); err != nil {
			return err
		}
	}

	value := []byte(strconv.Itoa(score))
	if err := a.kv.HSet(ctx, a.key("scores"), pair, value); err != nil {
		return err
	}
	if err := a.kv.HSet(ctx, a.key("book_scores", bookID), userID, value); err != nil {
		return err
	}

	all, err := a.kv.HGetAll(ctx, a.key("book_scores", bookID))
	if err != nil {
		return err
	}
	ratings := make([]core.Rating, 0, len(all))
	for uid, v := range all {
		s, err := strconv.Atoi(string(v))
		if err != nil {
			return fmt.Errorf("parse rating %s/%s: %w", uid, bookID, err)
		}
		ratings = append(ratings, core.Rating{UserID: uid, BookID: bookID, Score: s})
	}
	book.AverageRating = core.AverageRating(ratings)
	return a.writeBook(ctx, book)
}

// AllItems 按写入顺序返回全部书目。
func (a *CatalogAdapter) AllItems(ctx context.Context) ([]core.Book, error) {
	ids, err := a.kv.ZRange(ctx, a.key("books"), 0, -1)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = a.key("book", id)
	}
	data, err := a.kv.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}
	books := make([]core.Book, 0, len(ids))
	for i, k := range keys {
		raw, ok := data[k]
		if !ok {
			continue
		}
		var b core.Book
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decode book %s: %w", ids[i], err)
		}
		books = append(books, b)
	}
	return books, nil
}

// AllRatings 按首次评分顺序返回全部评分。
func (a *CatalogAdapter) AllRatings(ctx context.Context) ([]core.Rating, error) {
	pairs, err := a.kv.ZRange(ctx, a.key("ratings"), 0, -1)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	scores, err := a.kv.HGetAll(ctx, a.key("scores"))
	if err != nil {
		return nil, err
	}
	ratings := make([]core.Rating, 0, len(pairs))
	for _, p := range pairs {
		userID, bookID, ok := splitPair(p)
		if !ok {
			continue
		}
		raw, ok := scores[p]
		if !ok {
			continue
		}
		s, err := strconv.Atoi(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse rating %s/%s: %w", userID, bookID, err)
		}
		ratings = append(ratings, core.Rating{UserID: userID, BookID: bookID, Score: s})
	}
	return ratings, nil
}

// RatingsForUser 返回用户评分中 Score >= minScore 的部分，按评分顺序。
func (a *CatalogAdapter) RatingsForUser(ctx context.Context, userID string, minScore int) ([]core.Rating, error) {
	bookIDs, err := a.kv.ZRange(ctx, a.key("user", userID), 0, -1)
	if err != nil {
		return nil, err
	}
	ratings := make([]core.Rating, 0, len(bookIDs))
	for _, bookID := range bookIDs {
		raw, err := a.kv.HGet(ctx, a.key("scores"), pairKey(userID, bookID))
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue
			}
			return nil, err
		}
		s, err := strconv.Atoi(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse rating %s/%s: %w", userID, bookID, err)
		}
		if minScore > 0 && s < minScore {
			continue
		}
		ratings = append(ratings, core.Rating{UserID: userID, BookID: bookID, Score: s})
	}
	return ratings, nil
}

// ItemByID 读取单本书目，不存在时返回 core.ErrBookNotFound。
func (a *CatalogAdapter) ItemByID(ctx context.Context, bookID string) (*core.Book, error) {
	raw, err := a.kv.Get(ctx, a.key("book", bookID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrBookNotFound, bookID)
		}
		return nil, err
	}
	var b core.Book
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode book %s: %w", bookID, err)
	}
	return &b, nil
}
