// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sdlwindow

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/vkframe/input"
)

func TestTranslate(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		name  string
		event sdl.Event
		want  input.Event
		ok    bool
	}{{
		name:  "quit",
		event: &sdl.QuitEvent{Type: sdl.QUIT},
		want:  input.Event{Kind: input.Quit},
		ok:    true,
	}, {
		name:  "key down",
		event: &sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_w}},
		want:  input.Event{Kind: input.KeyPressed, Key: input.KeyW},
		ok:    true,
	}, {
		name:  "shift up",
		event: &sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Sym: sdl.K_RSHIFT}},
		want:  input.Event{Kind: input.KeyReleased, Key: input.KeyShift},
		ok:    true,
	}, {
		name:  "unbound key",
		event: &sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_q}},
	}, {
		name:  "resize",
		event: &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_SIZE_CHANGED, Data1: 1024, Data2: 768},
		want:  input.Event{Kind: input.Resized, Width: 1024, Height: 768},
		ok:    true,
	}, {
		name:  "focus",
		event: &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_FOCUS_GAINED},
	}}
	for _, test := range tests {
		got, ok := translate(test.event)
		c.Assert(ok, qt.Equals, test.ok, qt.Commentf("%s", test.name))
		c.Assert(got, qt.Equals, test.want, qt.Commentf("%s", test.name))
	}
}
