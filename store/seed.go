package store

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rushteam/bookrec/core"
)

// Writer 是可写入书目与评分的数据源。
type Writer interface {
	AddBook(ctx context.Context, b core.Book) error
	Rate(ctx context.Context, userID, bookID string, score int) error
}

// UserWriter 是可以登记用户的数据源（可选）。
type UserWriter interface {
	AddUser(ctx context.Context, id, name string) error
}

// SampleUser 是示例用户。
type SampleUser struct {
	ID   string
	Name string
}

// SampleUsers 返回示例用户。
func SampleUsers() []SampleUser {
	return []SampleUser{
		{ID: "u1", Name: "Alice"},
		{ID: "u2", Name: "Bob"},
		{ID: "u3", Name: "Charlie"},
		{ID: "u4", Name: "Diana"},
		{ID: "u5", Name: "Eve"},
	}
}

// SampleBooks 返回示例书目（15 本）。
func SampleBooks() []core.Book {
	return []core.Book{
		{ID: "b1", Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: "Classic",
			Description: "A story of decadence and excess in 1920s America", Year: 1925},
		{ID: "b2", Title: "To Kill a Mockingbird", Author: "Harper Lee", Genre: "Classic",
			Description: "A gripping tale of racial inequality and childhood innocence", Year: 1960},
		{ID: "b3", Title: "1984", Author: "George Orwell", Genre: "Science Fiction",
			Description: "A dystopian social science fiction novel", Year: 1949},
		{ID: "b4", Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance",
			Description: "A romantic novel of manners", Year: 1813},
		{ID: "b5", Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy",
			Description: "A fantasy novel about the adventures of Bilbo Baggins", Year: 1937},
		{ID: "b6", Title: "Harry Potter and the Sorcerer's Stone", Author: "J.K. Rowling", Genre: "Fantasy",
			Description: "A young wizard discovers his magical heritage", Year: 1997},
		{ID: "b7", Title: "The Catcher in the Rye", Author: "J.D. Salinger", Genre: "Classic",
			Description: "A story of teenage rebellion and alienation", Year: 1951},
		{ID: "b8", Title: "Lord of the Flies", Author: "William Golding", Genre: "Classic",
			Description: "A group of boys stranded on an island descend into savagery", Year: 1954},
		{ID: "b9", Title: "Brave New World", Author: "Aldous Huxley", Genre: "Science Fiction",
			Description: "A dystopian novel set in a futuristic World State", Year: 1932},
		{ID: "b10", Title: "The Lord of the Rings", Author: "J.R.R. Tolkien", Genre: "Fantasy",
			Description: "An epic high-fantasy novel", Year: 1954},
		{ID: "b11", Title: "Animal Farm", Author: "George Orwell", Genre: "Classic",
			Description: "An allegorical novella about Soviet totalitarianism", Year: 1945},
		{ID: "b12", Title: "Jane Eyre", Author: "Charlotte Brontë", Genre: "Romance",
			Description: "A novel about the experiences of its eponymous heroine", Year: 1847},
		{ID: "b13", Title: "Wuthering Heights", Author: "Emily Brontë", Genre: "Romance",
			Description: "A story of passion and revenge", Year: 1847},
		{ID: "b14", Title: "The Hunger Games", Author: "Suzanne Collins", Genre: "Science Fiction",
			Description: "A dystopian novel about survival and rebellion", Year: 2008},
		{ID: "b15", Title: "Fahrenheit 451", Author: "Ray Bradbury", Genre: "Science Fiction",
			Description: "A dystopian novel about a future where books are banned", Year: 1953},
	}
}

// SeedStats 是 Seed 写入的数量。
type SeedStats struct {
	Users   int
	Books   int
	Ratings int
}

// Seed 写入示例书目与用户，每个用户随机评 5-10 本书（3-5 分）。
// 随机数由 seed 决定，相同 seed 得到相同的数据。
func Seed(ctx context.Context, w Writer, seed uint64) (SeedStats, error) {
	var stats SeedStats
	books := SampleBooks()
	for _, b := range books {
		if err := w.AddBook(ctx, b); err != nil {
			return stats, fmt.Errorf("seed book %s: %w", b.ID, err)
		}
		stats.Books++
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for _, u := range SampleUsers() {
		if uw, ok := w.(UserWriter); ok {
			if err := uw.AddUser(ctx, u.ID, u.Name); err != nil {
				return stats, fmt.Errorf("seed user %s: %w", u.ID, err)
			}
		}
		stats.Users++

		n := 5 + rng.IntN(6)
		for _, idx := range rng.Perm(len(books))[:n] {
			score := 3 + rng.IntN(3)
			if err := w.Rate(ctx, u.ID, books[idx].ID, score); err != nil {
				return stats, fmt.Errorf("seed rating %s/%s: %w", u.ID, books[idx].ID, err)
			}
			stats.Ratings++
		}
	}
	return stats, nil
}
