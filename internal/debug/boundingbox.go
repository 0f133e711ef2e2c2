// Package debug draws the F8 overlay on top of the editor window: spinner outlines,
// the selection and a status line.
package debug

import (
	"fmt"

	"spinner-editor/internal/engine2D"
	"spinner-editor/internal/scene"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var (
	outlineColor  = rl.NewColor(0, 255, 0, 255)
	selectedColor = rl.NewColor(255, 255, 0, 255)
	flattenColor  = rl.NewColor(0, 255, 255, 150)
)

type Overlay struct {
	Enabled bool
	// Status is drawn under the counters, e.g. the effect being edited.
	Status string
}

func (o *Overlay) Draw(sc *scene.Scene) {
	if !o.Enabled {
		return
	}
	current := sc.Current()
	for _, sp := range sc.Spinners() {
		corners, ok := sc.ScreenOutline(sp)
		if !ok {
			continue
		}
		col := outlineColor
		switch {
		case sp == current:
			col = selectedColor
		case sp.Sprite().Flattened():
			col = flattenColor
		}
		drawOutline(corners, col)
	}

	rl.DrawFPS(10, 10)
	rl.DrawText(fmt.Sprintf("spinners %d  zoom %v  photo %dx%d",
		sc.ContentCount(), sc.Zooming(), int(sc.PhotoSize().W), int(sc.PhotoSize().H)), 10, 32, 16, rl.White)
	if current != nil {
		c := current.Cursor()
		rl.DrawText(fmt.Sprintf("lat %d lon %d  scale %.2f  rot %.2f  locked %v",
			c.Latitude, c.Longitude, current.Scale(), current.Rotation(), current.LockedForEditing), 10, 52, 16, rl.White)
	}
	if o.Status != "" {
		rl.DrawText(o.Status, 10, 72, 16, rl.Yellow)
	}
}

func drawOutline(corners [4]engine2D.Point, col rl.Color) {
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		rl.DrawLineV(rl.NewVector2(a.X, a.Y), rl.NewVector2(b.X, b.Y), col)
	}
	// origin marker
	o := corners[0]
	rl.DrawRectangle(int32(o.X-2), int32(o.Y-2), 4, 4, rl.Red)
}
