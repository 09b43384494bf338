// Package screens drives the list and edit flows for clients, catalog items
// and documents on top of the collection paginator. A screen owns one list,
// its debounced search box and the single notification slot.
package screens

import (
	"context"
	"errors"
	"time"

	"bizdocs-backend/collection"
	"bizdocs-backend/store"
)

// EntityScreen lists one collection and applies create, edit and delete to
// both the backend and the loaded list.
type EntityScreen[T collection.Keyed] struct {
	label    string
	store    store.Collection[T]
	list     *collection.Paginator[T]
	search   *collection.Debouncer
	notifier collection.Notifier

	validate   func(T) error
	checkPatch func(map[string]any) error
	remove     func(ctx context.Context, id string) error
	optimistic bool
	searched   func(err error)

	ctx    context.Context
	cancel context.CancelFunc
}

type Option[T collection.Keyed] func(*screenConfig[T])

type screenConfig[T collection.Keyed] struct {
	label      string
	validate   func(T) error
	checkPatch func(map[string]any) error
	remove     func(ctx context.Context, id string) error
	optimistic bool
	debounce   time.Duration
	searched   func(err error)
	listOpts   []collection.Option
}

// WithLabel names the entity in notifications, e.g. "client".
func WithLabel[T collection.Keyed](label string) Option[T] {
	return func(c *screenConfig[T]) { c.label = label }
}

// WithValidator runs before every create; a failure stops the remote call.
func WithValidator[T collection.Keyed](fn func(T) error) Option[T] {
	return func(c *screenConfig[T]) { c.validate = fn }
}

// WithPatchValidator runs before every edit; a failure stops the remote call.
func WithPatchValidator[T collection.Keyed](fn func(patch map[string]any) error) Option[T] {
	return func(c *screenConfig[T]) { c.checkPatch = fn }
}

// WithRemover replaces the plain store delete, e.g. with a cascading one.
// Removers run before any local change.
func WithRemover[T collection.Keyed](fn func(ctx context.Context, id string) error) Option[T] {
	return func(c *screenConfig[T]) {
		c.remove = fn
		c.optimistic = false
	}
}

func WithDebounce[T collection.Keyed](d time.Duration) Option[T] {
	return func(c *screenConfig[T]) { c.debounce = d }
}

// WithSearchDone is called after every debounced reload, from the timer's
// goroutine.
func WithSearchDone[T collection.Keyed](fn func(err error)) Option[T] {
	return func(c *screenConfig[T]) { c.searched = fn }
}

// WithListOptions configures the underlying paginator.
func WithListOptions[T collection.Keyed](opts ...collection.Option) Option[T] {
	return func(c *screenConfig[T]) { c.listOpts = append(c.listOpts, opts...) }
}

// NewEntityScreen builds a screen bound to ctx. Close releases it.
func NewEntityScreen[T collection.Keyed](ctx context.Context, coll store.Collection[T], notifier collection.Notifier, opts ...Option[T]) *EntityScreen[T] {
	cfg := screenConfig[T]{label: coll.Name(), optimistic: true, debounce: collection.DefaultDebounce}
	for _, opt := range opts {
		opt(&cfg)
	}
	if notifier == nil {
		notifier = collection.LogNotifier{}
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &EntityScreen[T]{
		label:      cfg.label,
		store:      coll,
		notifier:   notifier,
		validate:   cfg.validate,
		checkPatch: cfg.checkPatch,
		remove:     cfg.remove,
		optimistic: cfg.optimistic,
		searched:   cfg.searched,
		ctx:        ctx,
		cancel:     cancel,
	}
	if s.remove == nil {
		s.remove = coll.Delete
	}
	listOpts := append([]collection.Option{collection.WithNotifier(notifier)}, cfg.listOpts...)
	s.list = collection.NewPaginator[T](coll, listOpts...)
	s.search = collection.NewDebouncer(cfg.debounce, func(term string) {
		// failures already reached the notifier
		err := s.list.Reset(s.ctx, term)
		if s.searched != nil {
			s.searched(err)
		}
	})
	return s
}

// Open loads the first page with an empty search.
func (s *EntityScreen[T]) Open() error {
	return s.list.Reset(s.ctx, "")
}

// Search schedules a reload for term after the debounce period.
func (s *EntityScreen[T]) Search(term string) {
	s.search.Trigger(term)
}

// SearchNow reloads for term immediately, dropping any pending search.
func (s *EntityScreen[T]) SearchNow(term string) error {
	s.search.Cancel()
	return s.list.Reset(s.ctx, term)
}

func (s *EntityScreen[T]) LoadMore() error {
	return s.list.LoadNextPage(s.ctx)
}

func (s *EntityScreen[T]) Items() []T    { return s.list.Items() }
func (s *EntityScreen[T]) HasMore() bool { return s.list.HasMore() }
func (s *EntityScreen[T]) Loading() bool { return s.list.Loading() }
func (s *EntityScreen[T]) Term() string  { return s.list.Term() }

// List exposes the paginator for screens composing this one.
func (s *EntityScreen[T]) List() *collection.Paginator[T] { return s.list }

// Create validates, inserts and puts the stored record at the top of the list.
func (s *EntityScreen[T]) Create(ctx context.Context, rec T) (T, error) {
	if s.validate != nil {
		if err := s.validate(rec); err != nil {
			s.notifier.Notify(collection.Notice{Title: "Incomplete data", Description: err.Error()})
			return rec, err
		}
	}
	stored, err := s.store.Insert(ctx, rec)
	if err != nil {
		s.notifier.Notify(collection.Notice{Title: "Failed to add " + s.label, Description: err.Error()})
		return rec, err
	}
	s.list.Prepend(stored)
	s.notifier.Notify(collection.Notice{Title: "Saved", Description: "New " + s.label + " added."})
	return stored, nil
}

// Edit patches the record and swaps the list entry in place.
func (s *EntityScreen[T]) Edit(ctx context.Context, id string, patch map[string]any) (T, error) {
	if s.checkPatch != nil {
		if err := s.checkPatch(patch); err != nil {
			s.notifier.Notify(collection.Notice{Title: "Incomplete data", Description: err.Error()})
			var zero T
			return zero, err
		}
	}
	stored, err := s.store.Update(ctx, id, patch)
	if err != nil {
		s.notifier.Notify(collection.Notice{Title: "Failed to update " + s.label, Description: err.Error()})
		return stored, err
	}
	s.list.Replace(stored)
	s.notifier.Notify(collection.Notice{Title: "Saved", Description: "The " + s.label + " was updated."})
	return stored, nil
}

// Delete removes a record. Plain deletes drop the row first and roll back by
// reloading page 0 on failure; custom removers run before any local change.
func (s *EntityScreen[T]) Delete(ctx context.Context, id string) error {
	if s.optimistic {
		s.list.Remove(id)
	}
	if err := s.remove(ctx, id); err != nil {
		s.notifier.Notify(collection.Notice{Title: "Failed to delete " + s.label, Description: err.Error()})
		if rerr := s.list.Reset(ctx, s.list.Term()); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	if !s.optimistic {
		s.list.Remove(id)
	}
	s.notifier.Notify(collection.Notice{Title: "Deleted", Description: "The " + s.label + " was removed."})
	return nil
}

// Close cancels a pending search and any in-flight fetch.
func (s *EntityScreen[T]) Close() {
	s.search.Stop()
	s.cancel()
}
