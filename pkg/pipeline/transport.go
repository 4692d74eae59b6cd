package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Owner identifies the pipeline a transport belongs to.
type Owner interface {
	ID() uuid.UUID
}

// Entry is one transported key/value pair.
type Entry struct {
	Key   string
	Value any
}

// Snapshot is the exported state of a transport.
type Snapshot struct {
	Input       any
	Transported []Entry
	StartedAt   time.Time
}

// Get returns the transported value for key, or nil.
func (s Snapshot) Get(key string) any {
	for _, e := range s.Transported {
		if e.Key == key {
			return e.Value
		}
	}

	return nil
}

// Transport carries side-channel data between the steps of one run, including the steps of nested pipelines.
// It is not safe for concurrent use.
type Transport struct {
	ownerID   uuid.UUID
	input     any
	context   any
	createdAt time.Time
	keys      []string
	storage   map[string]any
}

// NewTransport creates a transport owned by owner for a run started with input.
func NewTransport(owner Owner, input, context any) *Transport {
	return &Transport{
		ownerID:   owner.ID(),
		input:     input,
		context:   context,
		createdAt: time.Now(),
		storage:   make(map[string]any),
	}
}

func (t *Transport) OwnerID() uuid.UUID { return t.ownerID }

func (t *Transport) Input() any { return t.input }

func (t *Transport) Context() any { return t.context }

func (t *Transport) CreatedAt() time.Time { return t.createdAt }

// AcceptsInput reports whether the transport was created for input.
func (t *Transport) AcceptsInput(input any) bool {
	return sameValue(input, t.input)
}

// ExportFor returns the transport state. Only the owning pipeline may export it.
func (t *Transport) ExportFor(owner Owner) (Snapshot, error) {
	if owner == nil || owner.ID() != t.ownerID {
		return Snapshot{}, errors.Wrap(ErrAccess, "only the owning pipeline can export a transport")
	}

	transported := make([]Entry, 0, len(t.keys))
	for _, key := range t.keys {
		transported = append(transported, Entry{Key: key, Value: t.storage[key]})
	}

	return Snapshot{
		Input:       t.input,
		Transported: transported,
		StartedAt:   t.createdAt,
	}, nil
}

// Get returns the value stored under key, or nil.
func (t *Transport) Get(key string) any {
	return t.storage[key]
}

func (t *Transport) Has(key string) bool {
	_, ok := t.storage[key]

	return ok
}

// Set stores value under key. A key holding a structured value can't be overwritten.
func (t *Transport) Set(key string, value any) error {
	current, ok := t.storage[key]
	if !ok {
		t.keys = append(t.keys, key)
		t.storage[key] = value

		return nil
	}
	if !isScalar(current) {
		return errors.Wrapf(ErrArgument, "existing structured value %q can't be overwritten", key)
	}
	t.storage[key] = value

	return nil
}

// Delete always fails: transported data can't be deleted.
func (t *Transport) Delete(key string) error {
	return errors.Wrapf(ErrLogic, "transported value %q can't be deleted", key)
}

// Keys returns the stored keys in insertion order.
func (t *Transport) Keys() []string {
	return append([]string(nil), t.keys...)
}
