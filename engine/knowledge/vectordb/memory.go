package vectordb

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/gitacompanion/companion/engine/passage"
)

const backendMemory = "memory"

// MemoryStore keeps passages in process and ranks them by brute-force cosine.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	order     []int
	byID      map[int]passage.Passage
}

func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension: dimension,
		byID:      make(map[int]passage.Passage),
	}
}

func (m *MemoryStore) Upsert(_ context.Context, passages []passage.Passage) error {
	for i := range passages {
		if passages[i].HasEmbedding() && len(passages[i].Embedding) != m.dimension {
			return fmt.Errorf(
				"%w: passage %d has %d, want %d",
				ErrDimensionMismatch, passages[i].ID, len(passages[i].Embedding), m.dimension,
			)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range passages {
		p := passages[i].Clone()
		if _, exists := m.byID[p.ID]; !exists {
			m.order = append(m.order, p.ID)
		}
		m.byID[p.ID] = p
	}
	m.sortLocked()
	return nil
}

// Replace swaps the whole content atomically. Used when the catalog file is reloaded.
func (m *MemoryStore) Replace(passages []passage.Passage) error {
	fresh := NewMemoryStore(m.dimension)
	if err := fresh.Upsert(context.Background(), passages); err != nil {
		return err
	}
	m.mu.Lock()
	m.order = fresh.order
	m.byID = fresh.byID
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) sortLocked() {
	sort.SliceStable(m.order, func(i, j int) bool {
		a, b := m.byID[m.order[i]], m.byID[m.order[j]]
		if a.Chapter != b.Chapter {
			return a.Chapter < b.Chapter
		}
		if a.Verse != b.Verse {
			return a.Verse < b.Verse
		}
		return a.ID < b.ID
	})
}

type scored struct {
	distance float64
	pos      int
}

// Search ranks embedded passages by cosine distance. A zero query vector has
// no direction, so it matches nothing.
func (m *MemoryStore) Search(ctx context.Context, query []float32, k int) ([]passage.Passage, error) {
	start := time.Now()
	if len(query) != m.dimension {
		recordVectorError(ctx, backendMemory, "search")
		return nil, fmt.Errorf("%w: query has %d, want %d", ErrDimensionMismatch, len(query), m.dimension)
	}
	if k <= 0 || norm(query) == 0 {
		return []passage.Passage{}, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	candidates := make([]scored, 0, len(m.order))
	for pos, id := range m.order {
		p := m.byID[id]
		if !p.HasEmbedding() {
			continue
		}
		candidates = append(candidates, scored{distance: CosineDistance(query, p.Embedding), pos: pos})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]passage.Passage, len(candidates))
	for i, c := range candidates {
		out[i] = m.byID[m.order[c.pos]].Clone()
	}
	recordVectorSearch(ctx, backendMemory, k, time.Since(start), len(out))
	return out, nil
}

func (m *MemoryStore) All(_ context.Context) ([]passage.Passage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]passage.Passage, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id].Clone())
	}
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id int) (*passage.Passage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	clone := p.Clone()
	return &clone, nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order), nil
}

// IDs returns stored ids in canonical order.
func (m *MemoryStore) IDs() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

func (m *MemoryStore) Close(context.Context) error {
	return nil
}

// CosineDistance is 1 - cosine similarity. Vectors with zero norm are at
// distance 1 from everything.
func CosineDistance(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(na*nb)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
