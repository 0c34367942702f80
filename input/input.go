// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package input collects window events and applies them once per frame.
package input

import (
	"sync"
)

// Key is a keyboard key the application reacts to.
type Key int

// Keys
const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	Key1
	Key2
	Key3
	KeyShift
	KeyEscape
)

var keyNames = map[Key]string{
	KeyW:      "W",
	KeyA:      "A",
	KeyS:      "S",
	KeyD:      "D",
	Key1:      "1",
	Key2:      "2",
	Key3:      "3",
	KeyShift:  "Shift",
	KeyEscape: "Escape",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Kind is the type of an event.
type Kind int

// Event kinds
const (
	KeyPressed Kind = iota
	KeyReleased
	Resized
	Quit
)

// Event is a window event, reduced to what the render loop needs.
type Event struct {
	Kind Kind
	Key  Key

	// Width and Height are set for Resized.
	Width, Height uint32
}

// Queue buffers events between the window thread and the frame loop.
// The zero value is ready to use.
type Queue struct {
	mutex  sync.Mutex
	events []Event
}

// Push appends events to the queue.
func (q *Queue) Push(events ...Event) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.events = append(q.events, events...)
}

// Drain removes and returns every queued event, oldest first.
func (q *Queue) Drain() []Event {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	events := q.events
	q.events = nil
	return events
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.events)
}
