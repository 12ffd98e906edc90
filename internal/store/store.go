// Package store keeps component markup: the current code and the original
// baseline a component can be reset to.
//
// Three backends implement Backend: Memory for tests and throwaway
// servers, File for a directory of plain files, and SQLite for a single
// database file. Local adapts any backend for in-process editing sessions.
package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/muurk/retype/internal/editerr"
)

// Record is one stored component. OriginalCode is written once at creation
// and never changed; HasOriginal is false for components first created by
// a plain Put.
type Record struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	OriginalCode string    `json:"-"`
	HasOriginal  bool      `json:"-"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Backend stores component records. Put is last-write-wins.
type Backend interface {
	// Get returns the record or a NotFound error.
	Get(ctx context.Context, id string) (Record, error)
	// Put replaces the code, creating a record without original when absent.
	Put(ctx context.Context, id, code string) (Record, error)
	// Create stores a new component with code as its original. An empty id
	// is replaced by a generated one.
	Create(ctx context.Context, id, code string) (Record, error)
	// Reset copies the original back into code.
	Reset(ctx context.Context, id string) (Record, error)
	// List returns all component ids, sorted.
	List(ctx context.Context) ([]string, error)
	Close() error
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateID checks a component id.
func ValidateID(id string) error {
	if id == "" {
		return editerr.Validation("Component ID is required.")
	}
	if !idPattern.MatchString(id) {
		return editerr.Validationf("invalid component id %q", id)
	}
	return nil
}

// NewID generates a component id.
func NewID() string {
	return uuid.NewString()
}

func createID(id string) (string, error) {
	if id == "" {
		return NewID(), nil
	}
	return id, ValidateID(id)
}

// ErrNotFound builds the missing-component error.
func ErrNotFound(id string) error {
	return editerr.NotFound(fmt.Sprintf("Component '%s' does not exist.", id))
}

// ErrNoOriginal builds the missing-baseline error.
func ErrNoOriginal(id string) error {
	return editerr.NotFound(fmt.Sprintf("Original version for '%s' not found.", id))
}

// ErrExists builds the duplicate-create error.
func ErrExists(id string) error {
	return editerr.Validationf("Component '%s' already exists.", id)
}
