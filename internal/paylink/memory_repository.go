package paylink

import (
	"context"
	"sync"
)

// MemoryRepository keeps links in memory, keyed by reference. For tests and
// development runs without Postgres.
type MemoryRepository struct {
	mu    sync.Mutex
	links map[string]PaymentLink
}

func NewMemoryRepository() Repository {
	return &MemoryRepository{links: make(map[string]PaymentLink)}
}

func (r *MemoryRepository) Create(_ context.Context, link PaymentLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[link.Reference] = link
	return nil
}

func (r *MemoryRepository) FindByReference(_ context.Context, reference string) (PaymentLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[reference]
	if !ok {
		return PaymentLink{}, ErrNotFound
	}
	return link, nil
}

func (r *MemoryRepository) Deactivate(_ context.Context, reference string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[reference]
	if !ok || !link.Active {
		return false, nil
	}
	link.Active = false
	r.links[reference] = link
	return true, nil
}
