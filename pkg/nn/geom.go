package nn

import (
	"encoding/json"
	"fmt"

	"github.com/chewxy/math32"
)

type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (p Point) Distance(b Point) float32 {
	return math32.Sqrt((p.X-b.X)*(p.X-b.X) + (p.Y-b.Y)*(p.Y-b.Y))
}

// Rect is a detection bounding box in pixel coordinates.
// On the wire it is the 4-element array [x1, y1, x2, y2].
type Rect struct {
	X1 float32
	Y1 float32
	X2 float32
	Y2 float32
}

func MakeRect(x1, y1, x2, y2 float32) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func (r Rect) Width() float32 {
	return r.X2 - r.X1
}

func (r Rect) Height() float32 {
	return r.Y2 - r.Y1
}

func (r Rect) Area() float32 {
	return math32.Max(0, r.Width()) * math32.Max(0, r.Height())
}

func (r Rect) Intersection(b Rect) Rect {
	return Rect{
		X1: math32.Max(r.X1, b.X1),
		Y1: math32.Max(r.Y1, b.Y1),
		X2: math32.Min(r.X2, b.X2),
		Y2: math32.Min(r.Y2, b.Y2),
	}
}

func (r Rect) Union(b Rect) Rect {
	return Rect{
		X1: math32.Min(r.X1, b.X1),
		Y1: math32.Min(r.Y1, b.Y1),
		X2: math32.Max(r.X2, b.X2),
		Y2: math32.Max(r.Y2, b.Y2),
	}
}

// Intersection over Union
func (r Rect) IOU(b Rect) float32 {
	intersection := r.Intersection(b).Area()
	return intersection / (r.Area() + b.Area() - intersection)
}

func (r Rect) Center() Point {
	return Point{
		X: (r.X1 + r.X2) / 2,
		Y: (r.Y1 + r.Y2) / 2,
	}
}

func (r *Rect) Offset(dx, dy float32) {
	r.X1 += dx
	r.Y1 += dy
	r.X2 += dx
	r.Y2 += dy
}

func (r Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float32{r.X1, r.Y1, r.X2, r.Y2})
}

func (r *Rect) UnmarshalJSON(b []byte) error {
	coords := []float32{}
	if err := json.Unmarshal(b, &coords); err != nil {
		return err
	}
	if len(coords) != 4 {
		return fmt.Errorf("Box must have 4 coordinates, not %v", len(coords))
	}
	r.X1, r.Y1, r.X2, r.Y2 = coords[0], coords[1], coords[2], coords[3]
	return nil
}
