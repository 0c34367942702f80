// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package handle keeps track of native resources that are shared
// between several owners. Resources are kept in an arena indexed by a
// stable Key, and are destroyed only through an explicit Release,
// children strictly before their parents.
package handle

import (
	"errors"
	"fmt"
	"sync"
)

// package errors
var (
	ErrReleased     = errors.New("resource already released")
	ErrUnknownKey   = errors.New("resource key not registered")
	ErrLiveChildren = errors.New("resource still has live children")
)

// Key identifies a resource in the Registry. The zero Key is the root
// and never refers to a resource.
type Key uint64

// Root is the parent of resources that have no owner.
const Root Key = 0

// Kind names the type of resource kept behind a Key.
type Kind int

// Resource kinds tracked by the renderer.
const (
	KindInstance Kind = iota
	KindSurface
	KindDevice
	KindSwapchain
	KindSync
	KindBuffer
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindInstance:
		return "instance"
	case KindSurface:
		return "surface"
	case KindDevice:
		return "device"
	case KindSwapchain:
		return "swapchain"
	case KindSync:
		return "sync"
	case KindBuffer:
		return "buffer"
	default:
		return "other"
	}
}

// ReleaseFunc destroys the native resource behind an entry.
type ReleaseFunc func() error

type entry struct {
	kind     Kind
	parent   Key
	seq      uint64
	release  ReleaseFunc
	released bool
	children int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Key]*entry),
	}
}

// Registry is the arena of all live native resources.
// It is safe to use from multiple goroutines.
type Registry struct {
	mutex   sync.Mutex
	next    Key
	seq     uint64
	entries map[Key]*entry
	order   []Key
}

// Register adds a resource of the given kind as a child of parent.
// The parent must be live, or Root.
func (r *Registry) Register(kind Kind, parent Key, release ReleaseFunc) (Key, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if parent != Root {
		p, ok := r.entries[parent]
		if !ok {
			return 0, fmt.Errorf("parent %d: %w", parent, ErrUnknownKey)
		}
		if p.released {
			return 0, fmt.Errorf("parent %d: %w", parent, ErrReleased)
		}
		p.children++
	}

	r.next++
	r.seq++
	r.entries[r.next] = &entry{
		kind:    kind,
		parent:  parent,
		seq:     r.seq,
		release: release,
	}
	r.order = append(r.order, r.next)
	return r.next, nil
}

// Check returns nil if the key refers to a live resource.
func (r *Registry) Check(key Key) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.check(key)
}

func (r *Registry) check(key Key) error {
	e, ok := r.entries[key]
	if !ok {
		return ErrUnknownKey
	}
	if e.released {
		return ErrReleased
	}
	return nil
}

// Kind returns the kind the key was registered with.
func (r *Registry) Kind(key Key) (Kind, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return KindOther, ErrUnknownKey
	}
	return e.kind, nil
}

// Parent returns the parent key of the resource.
func (r *Registry) Parent(key Key) (Key, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return Root, ErrUnknownKey
	}
	return e.parent, nil
}

// Release destroys the resource behind key. It fails if the resource
// was already released or if any of its children are still live.
// The entry is marked released even if the release function fails.
func (r *Registry) Release(key Key) error {
	r.mutex.Lock()
	e, err := r.take(key)
	r.mutex.Unlock()
	if err != nil {
		return err
	}
	return r.run(key, e)
}

// take marks the entry released. Must be called with the mutex held.
func (r *Registry) take(key Key) (*entry, error) {
	if err := r.check(key); err != nil {
		return nil, err
	}
	e := r.entries[key]
	if e.children > 0 {
		return nil, fmt.Errorf("%s %d has %d: %w", e.kind, key, e.children, ErrLiveChildren)
	}
	e.released = true
	if p, ok := r.entries[e.parent]; ok {
		p.children--
	}
	return e, nil
}

func (r *Registry) run(key Key, e *entry) error {
	if e.release == nil {
		return nil
	}
	if err := e.release(); err != nil {
		return fmt.Errorf("release %s %d: %w", e.kind, key, err)
	}
	return nil
}

// ReleaseKind releases every live resource of the given kind,
// newest first. It keeps going on errors and returns the first one.
func (r *Registry) ReleaseKind(kind Kind) error {
	return r.releaseWhere(func(e *entry) bool { return e.kind == kind })
}

// ReleaseAll releases every live resource, newest first.
func (r *Registry) ReleaseAll() error {
	return r.releaseWhere(func(*entry) bool { return true })
}

func (r *Registry) releaseWhere(match func(*entry) bool) error {
	var first error
	for _, key := range r.Live() {
		r.mutex.Lock()
		e, ok := r.entries[key]
		if !ok || e.released || !match(e) {
			r.mutex.Unlock()
			continue
		}
		e, err := r.take(key)
		r.mutex.Unlock()
		if err == nil {
			err = r.run(key, e)
		}
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Live returns the keys of live resources, newest first.
func (r *Registry) Live() []Key {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var live []Key
	for idx := len(r.order) - 1; idx >= 0; idx-- {
		if e := r.entries[r.order[idx]]; !e.released {
			live = append(live, r.order[idx])
		}
	}
	return live
}

// Len returns the number of live resources.
func (r *Registry) Len() int {
	return len(r.Live())
}
