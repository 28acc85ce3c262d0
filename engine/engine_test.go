package engine

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
)

func newEngine(t *testing.T, src core.DataSource, opts ...Option) *Engine {
	t.Helper()
	e, err := New(src, Config{}, zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func bookIDs(books []core.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestNew(t *testing.T) {
	if _, err := New(nil, Config{}, zerolog.Nop()); !core.IsInvalidInput(err) {
		t.Errorf("New(nil) error = %v, want INVALID_INPUT", err)
	}
	if _, err := New(newLibrary(), Config{DefaultAlpha: 1.5}, zerolog.Nop()); !core.IsInvalidInput(err) {
		t.Errorf("New(alpha 1.5) error = %v, want INVALID_INPUT", err)
	}
	e := newEngine(t, newLibrary())
	if got := e.Config(); got.DefaultN != 10 || got.DefaultAlpha != 0.5 || got.CandidateMultiplier != 2 {
		t.Errorf("Config() = %+v, defaults not applied", got)
	}
}

func TestCurrentBeforeTrain(t *testing.T) {
	e := newEngine(t, newLibrary())
	if _, err := e.Current(); !errors.Is(err, core.ErrNotTrained) {
		t.Fatalf("Current() error = %v, want ErrNotTrained", err)
	}
	if err := e.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	m, err := e.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if m.Version != 1 {
		t.Errorf("Version = %d, want 1", m.Version)
	}
}

func TestHybridAlphaExtremes(t *testing.T) {
	ctx := context.Background()
	src := newLibrary()
	e := newEngine(t, src)
	m, err := e.Model(ctx)
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}

	ratings, _ := src.RatingsForUser(ctx, "u1", 0)
	rctx := &core.RecommendContext{UserID: "u1", Ratings: ratings}
	const n = 2

	tests := []struct {
		name  string
		alpha float64
		want  []string
	}{
		{name: "alpha 1 is pure collaborative", alpha: 1, want: ids(m.Collaborative("u1", n))},
		{name: "alpha 0 is pure content", alpha: 0, want: ids(m.Content(rctx.LikedRatings(4), rctx.RatedSet(), n))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := e.HybridRecommendations(ctx, "u1", n, tt.alpha)
			if err != nil {
				t.Fatalf("HybridRecommendations() error = %v", err)
			}
			if got := bookIDs(books); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("HybridRecommendations(alpha=%v) = %v, want %v", tt.alpha, got, tt.want)
			}
		})
	}
}

func TestHybridFewerCandidatesThanN(t *testing.T) {
	src := &staticSource{
		books: []core.Book{
			{ID: "b1", Genre: "Fantasy", Description: "dragons"},
			{ID: "b2", Genre: "Fantasy", Description: "wizards"},
			{ID: "b3", Genre: "Romance", Description: "letters"},
			{ID: "b4", Genre: "Horror", Description: "ghosts"},
		},
		ratings: []core.Rating{
			{UserID: "u1", BookID: "b1", Score: 5},
			{UserID: "u2", BookID: "b1", Score: 5},
			{UserID: "u2", BookID: "b2", Score: 4},
		},
	}
	e := newEngine(t, src)
	books, err := e.HybridRecommendations(context.Background(), "u1", 10, 0.5)
	if err != nil {
		t.Fatalf("HybridRecommendations() error = %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("got %d books %v, want 3", len(books), bookIDs(books))
	}
	if books[0].ID != "b2" {
		t.Errorf("first book = %s, want b2 (in both lists)", books[0].ID)
	}
}

func TestHybridRecommendations(t *testing.T) {
	ctx := context.Background()
	src := newLibrary()
	e := newEngine(t, src)

	tests := []struct {
		name   string
		userID string
		n      int
		alpha  float64
		maxLen int
	}{
		{name: "default n and alpha", userID: "u1", n: 0, alpha: -1, maxLen: 10},
		{name: "bounded by n", userID: "u1", n: 2, alpha: 0.5, maxLen: 2},
		{name: "heavy rater", userID: "u2", n: 5, alpha: 0.7, maxLen: 2},
		{name: "cold user", userID: "nobody", n: 5, alpha: 0.5, maxLen: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := e.HybridRecommendations(ctx, tt.userID, tt.n, tt.alpha)
			if err != nil {
				t.Fatalf("HybridRecommendations() error = %v", err)
			}
			if len(books) > tt.maxLen {
				t.Errorf("got %d books, want at most %d", len(books), tt.maxLen)
			}
			rated, _ := src.RatingsForUser(ctx, tt.userID, 0)
			seen := make(map[string]bool)
			for _, b := range books {
				if seen[b.ID] {
					t.Errorf("duplicate book %s", b.ID)
				}
				seen[b.ID] = true
				for _, r := range rated {
					if r.BookID == b.ID {
						t.Errorf("recommended already rated book %s", b.ID)
					}
				}
				if b.Title == "" {
					t.Errorf("book %s not resolved", b.ID)
				}
			}
		})
	}
}

func TestHybridInvalidAlpha(t *testing.T) {
	tests := []struct {
		name  string
		alpha float64
	}{
		{name: "above one", alpha: 1.2},
		{name: "NaN", alpha: math.NaN()},
		{name: "positive infinity", alpha: math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, newLibrary())
			_, err := e.HybridRecommendations(context.Background(), "u1", 5, tt.alpha)
			if !core.IsInvalidInput(err) {
				t.Fatalf("error = %v, want INVALID_INPUT", err)
			}
			if _, cerr := e.Current(); !errors.Is(cerr, core.ErrNotTrained) {
				t.Error("invalid alpha should be rejected before training")
			}
		})
	}
}

func TestHybridEmptyCorpus(t *testing.T) {
	e := newEngine(t, &staticSource{})
	books, err := e.HybridRecommendations(context.Background(), "u1", 5, 0.5)
	if err != nil {
		t.Fatalf("HybridRecommendations() error = %v", err)
	}
	if len(books) != 0 {
		t.Errorf("got %v, want empty", bookIDs(books))
	}
}

func TestSimilarBooks(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newLibrary())

	got, err := e.SimilarBooks(ctx, "b3", 2)
	if err != nil {
		t.Fatalf("SimilarBooks() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "b4" {
		t.Fatalf("SimilarBooks(b3, 2) = %+v, want b4 first", got)
	}
	if got[0].Similarity <= 0 || got[0].Title != "Brave New World" {
		t.Errorf("SimilarBooks(b3)[0] = %+v", got[0])
	}

	all, err := e.SimilarBooks(ctx, "b1", 0)
	if err != nil {
		t.Fatalf("SimilarBooks() error = %v", err)
	}
	if len(all) != 5 {
		t.Errorf("SimilarBooks(b1, default) returned %d, want 5", len(all))
	}
	for _, s := range all {
		if s.ID == "b1" {
			t.Error("SimilarBooks returned the query book")
		}
	}

	missing, err := e.SimilarBooks(ctx, "nope", 3)
	if err != nil || len(missing) != 0 {
		t.Errorf("SimilarBooks(nope) = %v, %v; want empty, nil", missing, err)
	}
}

func TestModelIsStaleUntilTrain(t *testing.T) {
	ctx := context.Background()
	src := newLibrary()
	e := newEngine(t, src)
	if err := e.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	before, _ := e.Current()

	src.rate("u4", "b1", 5)
	m, _ := e.Current()
	if m != before || m.RatingCount != len(libraryRatings()) {
		t.Fatal("model changed without retraining")
	}
	if got := m.Collaborative("u4", 5); len(got) != 0 {
		t.Errorf("stale model knows about u4: %v", got)
	}

	if err := e.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	m, _ = e.Current()
	if m.Version != 2 {
		t.Errorf("Version = %d, want 2", m.Version)
	}
	if got := m.Collaborative("u4", 5); len(got) == 0 {
		t.Error("retrained model has no recommendations for u4")
	}
}

func TestFailedTrainKeepsModel(t *testing.T) {
	ctx := context.Background()
	src := newLibrary()
	e := newEngine(t, src)
	if err := e.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	before, _ := e.Current()

	boom := errors.New("database is down")
	src.fail(boom)
	if err := e.Train(ctx); !errors.Is(err, boom) {
		t.Fatalf("Train() error = %v, want %v", err, boom)
	}
	after, err := e.Current()
	if err != nil || after != before {
		t.Fatalf("Current() = %v, %v; want previous model", after, err)
	}
}

func TestFailedFirstTrain(t *testing.T) {
	boom := errors.New("unreachable")
	e := newEngine(t, &staticSource{err: boom})
	if _, err := e.HybridRecommendations(context.Background(), "u1", 5, 0.5); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if _, err := e.Current(); !errors.Is(err, core.ErrNotTrained) {
		t.Errorf("Current() error = %v, want ErrNotTrained", err)
	}
}

func TestConcurrentFirstUseTrainsOnce(t *testing.T) {
	src := newLibrary()
	e := newEngine(t, src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.HybridRecommendations(context.Background(), "u1", 3, 0.5); err != nil {
				t.Errorf("HybridRecommendations() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := src.loads.Load(); got != 1 {
		t.Errorf("trained %d times, want 1", got)
	}
	m, err := e.Current()
	if err != nil || m.Version != 1 {
		t.Errorf("Current() = %v, %v; want version 1", m, err)
	}
}

func TestFirstUseTrainIgnoresCallerCancel(t *testing.T) {
	e := newEngine(t, newLibrary())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := e.Model(ctx)
	if err != nil {
		t.Fatalf("Model() error = %v, want shared training to finish", err)
	}
	if cur, err := e.Current(); err != nil || cur != m {
		t.Errorf("Current() = %v, %v; want the model trained on first use", cur, err)
	}
}

func TestRecommendWithLiveModel(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newLibrary())
	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.UserBasedCF{Model: e.Live(), TopKItems: 10},
			&rerank.TopNNode{N: 2},
		},
	}

	books, err := e.Recommend(ctx, "u1", p, nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(books) != 0 {
		t.Errorf("untrained live model returned %v", bookIDs(books))
	}

	if err := e.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	books, err = e.Recommend(ctx, "u1", p, nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if got, want := bookIDs(books), []string{"b5", "b2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Recommend() = %v, want %v", got, want)
	}
}

func TestResolveSkipsDeletedBooks(t *testing.T) {
	ctx := context.Background()
	src := newLibrary()
	e := newEngine(t, src)
	if err := e.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	src.mu.Lock()
	src.books = src.books[:4]
	src.mu.Unlock()

	books, err := e.HybridRecommendations(ctx, "u1", 10, 1)
	if err != nil {
		t.Fatalf("HybridRecommendations() error = %v", err)
	}
	for _, b := range books {
		if b.ID == "b5" || b.ID == "b6" {
			t.Errorf("deleted book %s was returned", b.ID)
		}
	}
	if len(books) == 0 {
		t.Error("remaining books should still be recommended")
	}
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	e := newEngine(t, newLibrary(), WithMetrics(metrics))

	if _, err := e.HybridRecommendations(ctx, "u1", 3, 0.5); err != nil {
		t.Fatalf("HybridRecommendations() error = %v", err)
	}
	if _, err := e.HybridRecommendations(ctx, "nobody", 3, 0.5); err != nil {
		t.Fatalf("HybridRecommendations() error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.ModelVersion); got != 1 {
		t.Errorf("model_version = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.TrainTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("train_total{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.ModelSize.WithLabelValues("books")); got != 6 {
		t.Errorf("model_size{books} = %v, want 6", got)
	}
	if got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(SceneHybrid, "ok")); got != 1 {
		t.Errorf("requests_total{hybrid,ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(SceneHybrid, "empty")); got != 1 {
		t.Errorf("requests_total{hybrid,empty} = %v, want 1", got)
	}
}

func TestRunRetrainLoop(t *testing.T) {
	e := newEngine(t, newLibrary())
	if err := e.RunRetrainLoop(context.Background(), 0); err != nil {
		t.Fatalf("RunRetrainLoop(0) error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.RunRetrainLoop(ctx, 5*time.Millisecond) }()

	deadline := time.After(2 * time.Second)
	for {
		if m, err := e.Current(); err == nil && m.Version >= 2 {
			break
		}
		select {
		case <-deadline:
			cancel()
			t.Fatal("retrain loop did not train twice")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("RunRetrainLoop() error = %v, want context.Canceled", err)
	}
}
