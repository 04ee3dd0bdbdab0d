package loader

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/oggyb/bubbles/internal/db"
)

// Loader is a request-scoped batched getter: LoadMany fetches every
// missing key in a single IN query and caches the rows for the rest of the
// request. Never share a Loader across requests; construct one per
// operation (Loaders below) so the cache dies with the request.
type Loader[T any] struct {
	mu    sync.Mutex
	cache map[uint64]T
	fetch func(ctx context.Context, ids []uint64) ([]T, error)
	key   func(T) uint64
}

func newLoader[T any](fetch func(ctx context.Context, ids []uint64) ([]T, error), key func(T) uint64) *Loader[T] {
	return &Loader[T]{
		cache: make(map[uint64]T),
		fetch: fetch,
		key:   key,
	}
}

// LoadMany resolves the given ids, hitting storage only for keys not yet
// cached. Missing rows are simply absent from the result map.
func (l *Loader[T]) LoadMany(ctx context.Context, ids []uint64) (map[uint64]T, error) {
	l.mu.Lock()
	missing := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := l.cache[id]; !ok {
			missing = append(missing, id)
		}
	}
	l.mu.Unlock()

	if len(missing) > 0 {
		rows, err := l.fetch(ctx, missing)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		for _, row := range rows {
			l.cache[l.key(row)] = row
		}
		l.mu.Unlock()
	}

	out := make(map[uint64]T, len(ids))
	l.mu.Lock()
	for id := range seen {
		if row, ok := l.cache[id]; ok {
			out[id] = row
		}
	}
	l.mu.Unlock()
	return out, nil
}

// Load resolves a single id. Returns ok=false for unknown ids.
func (l *Loader[T]) Load(ctx context.Context, id uint64) (T, bool, error) {
	rows, err := l.LoadMany(ctx, []uint64{id})
	if err != nil {
		var zero T
		return zero, false, err
	}
	row, ok := rows[id]
	return row, ok, nil
}

// Loaders bundles the per-request loaders resolvers need.
type Loaders struct {
	Users   *Loader[db.User]
	Matches *Loader[db.Match]
}

// New constructs fresh loaders for one logical request.
func New(database *gorm.DB) *Loaders {
	return &Loaders{
		Users: newLoader(
			func(ctx context.Context, ids []uint64) ([]db.User, error) {
				var users []db.User
				err := database.WithContext(ctx).Find(&users, ids).Error
				return users, err
			},
			func(u db.User) uint64 { return u.ID },
		),
		Matches: newLoader(
			func(ctx context.Context, ids []uint64) ([]db.Match, error) {
				var matches []db.Match
				err := database.WithContext(ctx).Find(&matches, ids).Error
				return matches, err
			},
			func(m db.Match) uint64 { return m.ID },
		),
	}
}
