// list.go
//
// A row-level secured property, delivery instruction and package store for landlords
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of landlord-propsdb.
// landlord-propsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// landlord-propsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with landlord-propsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// Package properties implements the landlord's property list: loading, adding, editing and
// deleting properties while keeping an in-memory ordered copy in step with the store.
package properties

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/landlord-propsdb/internal/logging"
	"github.com/localnerve/landlord-propsdb/internal/mapper"
	"github.com/localnerve/landlord-propsdb/internal/store"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnauthenticated is returned before any store call when no principal is signed in
	ErrUnauthenticated = errors.New("not signed in")
	// ErrNotReady is returned by mutations before the list has loaded
	ErrNotReady = errors.New("property list has not been loaded")
	// ErrBusy is returned when another load or mutation is in flight
	ErrBusy = errors.New("another property operation is in progress")
	// ErrNotFound is returned when a property is not in the list
	ErrNotFound = errors.New("property not found")
	// ErrInvalidToken is returned for an unknown, cancelled or used delete token
	ErrInvalidToken = errors.New("invalid delete confirmation token")
)

// State is the lifecycle state of a List
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// DeleteToken confirms a requested delete. Each token is used at most once.
type DeleteToken string

// Option configures a List
type Option func(*List)

// WithClock sets the clock used to stamp local updates
func WithClock(now func() time.Time) Option {
	return func(l *List) {
		l.now = now
	}
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *List) {
		l.log = log
	}
}

// List owns the ordered properties of the signed-in landlord.
//
// Every operation runs to completion before returning; there are no optimistic updates.
// A failed operation leaves the items untouched, except when a linked-table write fails
// after the property row changed: the entry is then replaced by the reloaded record. Only one load or mutation may be in
// flight at a time, others fail with ErrBusy.
type List struct {
	repo       *Repository
	principals store.PrincipalSource
	now        func() time.Time
	log        logrus.FieldLogger

	// op is held while a load or mutation is in flight
	op sync.Mutex

	mu      sync.RWMutex
	state   State
	err     error
	loaded  bool
	items   []mapper.Property
	pending map[DeleteToken]string
}

// NewList creates an idle list over client for the principals' landlord
func NewList(client store.Client, principals store.PrincipalSource, opts ...Option) *List {
	l := &List{
		repo:       NewRepository(client),
		principals: principals,
		now:        time.Now,
		log:        logging.Logger,
		state:      StateIdle,
		pending:    make(map[DeleteToken]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current state
func (l *List) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Err returns the error of the last failed operation, nil when the list is not failed
func (l *List) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// Items returns a copy of the properties in list order
func (l *List) Items() []mapper.Property {
	l.mu.RLock()
	defer l.mu.RUnlock()
	items := make([]mapper.Property, len(l.items))
	for i, p := range l.items {
		items[i] = p.Clone()
	}
	return items
}

// Len returns the number of properties
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Get returns a copy of property id
func (l *List) Get(id string) (mapper.Property, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexOf(id); i >= 0 {
		return l.items[i].Clone(), true
	}
	return mapper.Property{}, false
}

// Load replaces the list with the landlord's properties, newest first
func (l *List) Load(ctx context.Context) error {
	if !l.op.TryLock() {
		return ErrBusy
	}
	defer l.op.Unlock()

	principal, err := l.principal(ctx)
	if err != nil {
		return err
	}

	l.setState(StateLoading, nil)

	items, err := l.repo.List(ctx, principal.ID)
	if err != nil {
		l.fail("load", err)
		return err
	}

	l.mu.Lock()
	l.items = items
	l.loaded = true
	l.state = StateReady
	l.err = nil
	l.mu.Unlock()

	l.log.WithField("count", len(items)).Debug("Loaded properties")
	return nil
}

// Add creates input in the store and prepends the stored property
func (l *List) Add(ctx context.Context, input mapper.Property) (mapper.Property, error) {
	principal, unlock, err := l.beginMutation(ctx)
	if err != nil {
		return mapper.Property{}, err
	}
	defer unlock()

	created, err := l.repo.Create(ctx, principal.ID, input)
	if err != nil {
		l.fail("add", err)
		return mapper.Property{}, err
	}

	l.mu.Lock()
	l.items = append([]mapper.Property{created}, l.items...)
	l.state = StateReady
	l.err = nil
	l.mu.Unlock()

	l.log.WithField("property_id", created.ID).Info("Added property")
	return created.Clone(), nil
}

// Update overwrites property id with input, keeping its position in the list
func (l *List) Update(ctx context.Context, id string, input mapper.Property) (mapper.Property, error) {
	_, unlock, err := l.beginMutation(ctx)
	if err != nil {
		return mapper.Property{}, err
	}
	defer unlock()

	current, ok := l.Get(id)
	if !ok {
		return mapper.Property{}, ErrNotFound
	}

	updated, err := l.repo.Update(ctx, current, input)
	if err != nil {
		l.patchPartial(id, err, false)
		l.fail("update", err)
		return mapper.Property{}, err
	}
	updated.UpdatedAt = l.now()

	l.mu.Lock()
	if i := l.indexOf(id); i >= 0 {
		l.items[i] = updated
	}
	l.state = StateReady
	l.err = nil
	l.mu.Unlock()

	l.log.WithField("property_id", id).Info("Updated property")
	return updated.Clone(), nil
}

// RequestDelete starts a delete of property id. Nothing changes until the returned
// token is confirmed.
func (l *List) RequestDelete(id string) (DeleteToken, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loaded {
		return "", ErrNotReady
	}
	if l.indexOf(id) < 0 {
		return "", ErrNotFound
	}

	token := DeleteToken(uuid.NewString())
	l.pending[token] = id
	return token, nil
}

// CancelDelete abandons a requested delete
func (l *List) CancelDelete(token DeleteToken) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.pending[token]; !ok {
		return ErrInvalidToken
	}
	delete(l.pending, token)
	return nil
}

// ConfirmDelete deletes the property of a requested delete, instructions first.
// The token is used up whether or not the delete succeeds.
func (l *List) ConfirmDelete(ctx context.Context, token DeleteToken) error {
	_, unlock, err := l.beginMutation(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	l.mu.Lock()
	id, ok := l.pending[token]
	delete(l.pending, token)
	l.mu.Unlock()

	if !ok {
		return ErrInvalidToken
	}
	current, found := l.Get(id)
	if !found {
		return ErrNotFound
	}

	if err := l.repo.Delete(ctx, current); err != nil {
		l.patchPartial(id, err, true)
		l.fail("delete", err)
		return err
	}

	l.mu.Lock()
	if i := l.indexOf(id); i >= 0 {
		l.items = append(l.items[:i:i], l.items[i+1:]...)
	}
	l.state = StateReady
	l.err = nil
	l.mu.Unlock()

	l.log.WithField("property_id", id).Info("Deleted property")
	return nil
}

// beginMutation takes the operation lock and checks the list may be mutated
func (l *List) beginMutation(ctx context.Context) (*store.Principal, func(), error) {
	if !l.op.TryLock() {
		return nil, nil, ErrBusy
	}

	l.mu.RLock()
	loaded := l.loaded
	l.mu.RUnlock()
	if !loaded {
		l.op.Unlock()
		return nil, nil, ErrNotReady
	}

	principal, err := l.principal(ctx)
	if err != nil {
		l.op.Unlock()
		return nil, nil, err
	}

	return principal, l.op.Unlock, nil
}

func (l *List) principal(ctx context.Context) (*store.Principal, error) {
	if l.principals == nil {
		return nil, ErrUnauthenticated
	}
	p, err := l.principals.CurrentPrincipal(ctx)
	if errors.Is(err, store.ErrNoSession) || (err == nil && (p == nil || p.ID == "")) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// patchPartial brings property id in step with the store after a partial write.
// Without a reloaded record, dropInstructions clears the local instructions.
func (l *List) patchPartial(id string, err error, dropInstructions bool) {
	var perr *PartialWriteError
	if !errors.As(err, &perr) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(id)
	if i < 0 {
		return
	}
	switch {
	case perr.Stored != nil:
		l.items[i] = perr.Stored.Clone()
	case dropInstructions:
		l.items[i].Instructions = nil
	}
}

func (l *List) setState(state State, err error) {
	l.mu.Lock()
	l.state = state
	l.err = err
	l.mu.Unlock()
}

func (l *List) fail(op string, err error) {
	l.setState(StateFailed, err)
	l.log.WithError(err).WithField("op", op).Warn("Property operation failed")
}

// indexOf requires l.mu
func (l *List) indexOf(id string) int {
	for i, p := range l.items {
		if p.ID == id {
			return i
		}
	}
	return -1
}
