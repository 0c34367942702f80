// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package input

import (
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"github.com/devblok/vkframe/model"
)

// Movement steps applied per key press
const (
	MoveSpeed     float32 = 0.1
	RotationSpeed float32 = 0.3
	DepthSpeed    float32 = 0.05
)

// Outcome tells the frame loop what the applied events asked for.
type Outcome struct {
	Quit    bool
	Resized bool
}

// Controller moves the selected model of a group in response to keys.
// It is meant to be driven from the frame loop only.
type Controller struct {
	group    *model.Group
	log      logrus.FieldLogger
	selected int
	shift    bool
}

// NewController returns a controller with the first model selected.
func NewController(group *model.Group, log logrus.FieldLogger) *Controller {
	return &Controller{
		group: group,
		log:   log,
	}
}

// Selected returns the index of the model keys act upon.
func (c *Controller) Selected() int {
	return c.selected
}

// Apply applies the events in order.
func (c *Controller) Apply(events []Event) (Outcome, error) {
	var out Outcome
	for _, e := range events {
		switch e.Kind {
		case Quit:
			out.Quit = true
		case Resized:
			out.Resized = true
		case KeyReleased:
			if e.Key == KeyShift {
				c.shift = false
			}
		case KeyPressed:
			if err := c.press(e.Key, &out); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

func (c *Controller) press(key Key, out *Outcome) error {
	switch key {
	case KeyShift:
		c.shift = true
	case KeyEscape:
		out.Quit = true
	case Key1, Key2, Key3:
		c.selectModel(int(key - Key1))
	case KeyW, KeyA, KeyS, KeyD:
		translation, rotation := movement(key, c.shift)
		m, err := c.group.ModelMatrix(c.selected)
		if err != nil {
			return err
		}
		return c.group.SetModelMatrix(c.selected, m.Moved(translation, rotation, glm.Vec3{}))
	}
	return nil
}

func (c *Controller) selectModel(idx int) {
	if idx >= c.group.Len() {
		c.log.WithField("model", idx).Debug("selection ignored, no such model")
		return
	}
	c.selected = idx
	c.log.WithField("model", idx).Debug("model selected")
}

// movement returns the translation and rotation deltas of a movement key.
// Without shift the keys move in the XY plane; with shift W and S move
// along Z and A and D turn around Y.
func movement(key Key, shift bool) (translation, rotation glm.Vec3) {
	if shift {
		switch key {
		case KeyW:
			translation = glm.Vec3{0, 0, DepthSpeed}
		case KeyS:
			translation = glm.Vec3{0, 0, -DepthSpeed}
		case KeyA:
			rotation = glm.Vec3{0, -RotationSpeed, 0}
		case KeyD:
			rotation = glm.Vec3{0, RotationSpeed, 0}
		}
		return
	}
	switch key {
	case KeyW:
		translation = glm.Vec3{0, -MoveSpeed, 0}
	case KeyS:
		translation = glm.Vec3{0, MoveSpeed, 0}
	case KeyA:
		translation = glm.Vec3{-MoveSpeed, 0, 0}
	case KeyD:
		translation = glm.Vec3{MoveSpeed, 0, 0}
	}
	return
}
