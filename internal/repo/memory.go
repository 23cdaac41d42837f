package repo

import (
	"context"
	"sync"
)

// MemoryRepo keeps encoded slots in process memory. FailNext makes the next
// Save return the given error without writing anything.
type MemoryRepo struct {
	mu       sync.Mutex
	slots    map[Key][]byte
	saves    int
	failNext error
}

var _ Repository = (*MemoryRepo)(nil)

func NewMemory() *MemoryRepo {
	return &MemoryRepo{slots: map[Key][]byte{}}
}

func (r *MemoryRepo) Load(_ context.Context) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var st State
	for k, data := range r.slots {
		if err := decodeSlot(&st, k, data); err != nil {
			return State{}, err
		}
	}
	return st, nil
}

func (r *MemoryRepo) Save(_ context.Context, st State, keys ...Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}

	encoded, err := encodeSlots(st, keys)
	if err != nil {
		return err
	}
	for k, v := range encoded {
		r.slots[k] = v
	}
	r.saves++
	return nil
}

func (r *MemoryRepo) Close() error {
	return nil
}

func (r *MemoryRepo) FailNext(err error) {
	r.mu.Lock()
	r.failNext = err
	r.mu.Unlock()
}

// Saves reports how many Save calls succeeded.
func (r *MemoryRepo) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// Raw returns the stored bytes of one slot.
func (r *MemoryRepo) Raw(key Key) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.slots[key]
	return v, ok
}
