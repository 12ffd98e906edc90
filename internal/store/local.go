package store

import (
	"context"
	"time"

	"github.com/muurk/retype/internal/logging"
)

// Local serves editing sessions straight from a Backend, without HTTP.
type Local struct {
	Backend Backend
}

// NewLocal wraps b.
func NewLocal(b Backend) *Local {
	return &Local{Backend: b}
}

// Load returns the current code.
func (l *Local) Load(ctx context.Context, id string) (string, error) {
	start := time.Now()
	rec, err := l.Backend.Get(ctx, id)
	logging.LogStoreCall("load", id, time.Since(start), err)
	return rec.Code, err
}

// Save replaces the code and returns what was stored.
func (l *Local) Save(ctx context.Context, id, code string) (string, error) {
	start := time.Now()
	rec, err := l.Backend.Put(ctx, id, code)
	logging.LogStoreCall("save", id, time.Since(start), err)
	return rec.Code, err
}

// Reset restores the original and returns it.
func (l *Local) Reset(ctx context.Context, id string) (string, error) {
	start := time.Now()
	rec, err := l.Backend.Reset(ctx, id)
	logging.LogStoreCall("reset", id, time.Since(start), err)
	return rec.Code, err
}
