// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handle

import "sync"

// New registers value in the registry and returns a Handle to it.
// destroy is invoked once, when the registry releases the key.
func New[T any](reg *Registry, kind Kind, parent Key, value *T, destroy func(*T) error) (*Handle[T], error) {
	h := &Handle[T]{
		registry: reg,
		value:    value,
	}
	key, err := reg.Register(kind, parent, func() error {
		h.mutex.Lock()
		defer h.mutex.Unlock()
		v := h.value
		h.value = nil
		if destroy == nil || v == nil {
			return nil
		}
		return destroy(v)
	})
	if err != nil {
		return nil, err
	}
	h.key = key
	return h, nil
}

// Handle shares one native resource between several owners.
// Only one caller at a time can access the value.
type Handle[T any] struct {
	key      Key
	registry *Registry

	mutex sync.Mutex
	value *T
}

// Key returns the registry key of the resource.
func (h *Handle[T]) Key() Key {
	return h.key
}

// With calls f with exclusive access to the resource.
// Returns ErrReleased once the resource has been released.
// f must not release the handle it was given.
func (h *Handle[T]) With(f func(*T) error) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if err := h.registry.Check(h.key); err != nil {
		return err
	}
	if h.value == nil {
		return ErrReleased
	}
	return f(h.value)
}

// Live reports whether the resource was not released yet.
func (h *Handle[T]) Live() bool {
	return h.registry.Check(h.key) == nil
}

// Release destroys the resource through the registry.
func (h *Handle[T]) Release() error {
	return h.registry.Release(h.key)
}
