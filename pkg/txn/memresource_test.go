package txn

import (
	"context"
	"sync"
)

// memResource is an in-memory key-value resource for exercising the
// boundary manager. Writes issued through a transaction accessor stay
// staged until commit; the default accessor writes through immediately.
type memResource struct {
	name       string
	restricted []Isolation

	mu            sync.Mutex
	data          map[string]string
	begun         int
	committed     int
	rolledBack    int
	lastIsolation Isolation

	beginErr  error
	commitErr error
}

func newMemResource(name string) *memResource {
	return &memResource{
		name: name,
		data: make(map[string]string),
	}
}

func (r *memResource) Name() string { return r.name }

func (r *memResource) Kind() Kind { return KindMemory }

func (r *memResource) SupportedIsolation() []Isolation { return r.restricted }

func (r *memResource) Begin(ctx context.Context, isolation Isolation) (Tx, error) {
	if r.beginErr != nil {
		return nil, r.beginErr
	}
	r.mu.Lock()
	r.begun++
	r.lastIsolation = isolation
	r.mu.Unlock()
	return &memTx{res: r, staged: make(map[string]string)}, nil
}

func (r *memResource) DefaultAccessor() Accessor {
	return &directKV{res: r}
}

func (r *memResource) get(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[key]
	return v, ok
}

func (r *memResource) counts() (begun, committed, rolledBack int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.begun, r.committed, r.rolledBack
}

type memTx struct {
	res    *memResource
	staged map[string]string
}

func (t *memTx) Accessor() Accessor { return &stagedKV{tx: t} }

func (t *memTx) Commit(ctx context.Context) error {
	if t.res.commitErr != nil {
		return t.res.commitErr
	}
	t.res.mu.Lock()
	defer t.res.mu.Unlock()
	for k, v := range t.staged {
		t.res.data[k] = v
	}
	t.res.committed++
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.res.mu.Lock()
	defer t.res.mu.Unlock()
	t.staged = make(map[string]string)
	t.res.rolledBack++
	return nil
}

// kv is the accessor surface both accessor flavors share.
type kv interface {
	Put(key, value string)
	Get(key string) (string, bool)
}

type directKV struct {
	res *memResource
}

func (d *directKV) Put(key, value string) {
	d.res.mu.Lock()
	defer d.res.mu.Unlock()
	d.res.data[key] = value
}

func (d *directKV) Get(key string) (string, bool) {
	return d.res.get(key)
}

type stagedKV struct {
	tx *memTx
}

func (s *stagedKV) Put(key, value string) {
	s.tx.staged[key] = value
}

func (s *stagedKV) Get(key string) (string, bool) {
	if v, ok := s.tx.staged[key]; ok {
		return v, true
	}
	return s.tx.res.get(key)
}

// countingRecorder tallies lifecycle events for assertions.
type countingRecorder struct {
	mu         sync.Mutex
	begun      map[string]int
	committed  map[string]int
	rolledBack map[string]int
	joined     map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		begun:      make(map[string]int),
		committed:  make(map[string]int),
		rolledBack: make(map[string]int),
		joined:     make(map[string]int),
	}
}

func (c *countingRecorder) TxBegun(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.begun[resource]++
}

func (c *countingRecorder) TxCommitted(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed[resource]++
}

func (c *countingRecorder) TxRolledBack(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolledBack[resource]++
}

func (c *countingRecorder) TxJoined(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joined[resource]++
}
