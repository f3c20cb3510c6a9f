/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cleardata

import (
	"reflect"
	"slices"
	"sync"

	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/repository"
)

// repositories holds the named repositories of one entity type.
type repositories[T any] struct {
	mu    sync.RWMutex
	repos map[string]*repository.DocumentRepository[T]
}

func (rs *repositories[T]) add(name string, repo *repository.DocumentRepository[T]) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, exists := rs.repos[name]; exists {
		return errors.NewAlreadyExistsError("repository", name)
	}
	rs.repos[name] = repo
	return nil
}

func (rs *repositories[T]) get(name string) (*repository.DocumentRepository[T], error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	repo, exists := rs.repos[name]
	if !exists {
		return nil, errors.NewNotFoundError("repository", name)
	}
	return repo, nil
}

func (rs *repositories[T]) remove(name string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, exists := rs.repos[name]; !exists {
		return errors.NewNotFoundError("repository", name)
	}
	delete(rs.repos, name)
	return nil
}

func (rs *repositories[T]) names() []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	names := make([]string, 0, len(rs.repos))
	for name := range rs.repos {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Registry holds named document repositories per entity type. The same
// name may be used by different types. It is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	byType map[reflect.Type]any
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{byType: make(map[reflect.Type]any)}
}

func forType[T any](r *Registry) *repositories[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	typ := reflect.TypeFor[T]()
	if rs, exists := r.byType[typ]; exists {
		return rs.(*repositories[T])
	}
	rs := &repositories[T]{repos: make(map[string]*repository.DocumentRepository[T])}
	r.byType[typ] = rs
	return rs
}

// Register adds repo under name. Registering a name twice for the same
// type fails with an already-exists error.
func Register[T any](r *Registry, name string, repo *repository.DocumentRepository[T]) error {
	if repo == nil {
		return errors.NewValidationError("repository", "is required")
	}
	return forType[T](r).add(name, repo)
}

// Repository returns the repository of type T registered under name.
func Repository[T any](r *Registry, name string) (*repository.DocumentRepository[T], error) {
	return forType[T](r).get(name)
}

// Unregister removes the repository of type T registered under name.
func Unregister[T any](r *Registry, name string) error {
	return forType[T](r).remove(name)
}

// Names lists the names registered for type T in sorted order.
func Names[T any](r *Registry) []string {
	return forType[T](r).names()
}
