package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rushteam/bookrec/core"
)

// staticSource 是测试用的内存数据源，可注入错误并统计训练读取次数。
type staticSource struct {
	mu      sync.Mutex
	books   []core.Book
	ratings []core.Rating
	err     error

	loads atomic.Int32
}

var _ core.DataSource = (*staticSource)(nil)

func (s *staticSource) Name() string { return "static" }

func (s *staticSource) AllRatings(context.Context) ([]core.Rating, error) {
	s.loads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]core.Rating(nil), s.ratings...), nil
}

func (s *staticSource) AllItems(context.Context) ([]core.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]core.Book(nil), s.books...), nil
}

func (s *staticSource) RatingsForUser(_ context.Context, userID string, minScore int) ([]core.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]core.Rating, 0)
	for _, r := range s.ratings {
		if r.UserID == userID && r.Score >= minScore {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *staticSource) ItemByID(_ context.Context, bookID string) (*core.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.books {
		if s.books[i].ID == bookID {
			b := s.books[i]
			return &b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrBookNotFound, bookID)
}

func (s *staticSource) rate(userID, bookID string, score int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings = append(s.ratings, core.Rating{UserID: userID, BookID: bookID, Score: score})
}

func (s *staticSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// libraryBooks 是一个小书库：两本奇幻、两本科幻、两本言情。
func libraryBooks() []core.Book {
	return []core.Book{
		{ID: "b1", Title: "The Hobbit", Author: "Tolkien", Genre: "Fantasy", Description: "dragons quest magic ring", Year: 1937},
		{ID: "b2", Title: "Wizard School", Author: "Rowling", Genre: "Fantasy", Description: "wizard school magic", Year: 1997},
		{ID: "b3", Title: "1984", Author: "Orwell", Genre: "Science Fiction", Description: "dystopian surveillance state", Year: 1949},
		{ID: "b4", Title: "Brave New World", Author: "Huxley", Genre: "Science Fiction", Description: "dystopian future society", Year: 1932},
		{ID: "b5", Title: "Pride and Prejudice", Author: "Austen", Genre: "Romance", Description: "manners marriage society", Year: 1813},
		{ID: "b6", Title: "Wuthering Heights", Author: "Bronte", Genre: "Romance", Description: "passion revenge moors", Year: 1847},
	}
}

func libraryRatings() []core.Rating {
	return []core.Rating{
		{UserID: "u1", BookID: "b1", Score: 5},
		{UserID: "u1", BookID: "b3", Score: 4},
		{UserID: "u2", BookID: "b1", Score: 5},
		{UserID: "u2", BookID: "b2", Score: 4},
		{UserID: "u2", BookID: "b3", Score: 4},
		{UserID: "u2", BookID: "b4", Score: 2},
		{UserID: "u3", BookID: "b5", Score: 5},
		{UserID: "u3", BookID: "b6", Score: 4},
		{UserID: "u3", BookID: "b1", Score: 1},
	}
}

func newLibrary() *staticSource {
	return &staticSource{books: libraryBooks(), ratings: libraryRatings()}
}
