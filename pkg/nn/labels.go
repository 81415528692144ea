package nn

import "time"

// ObjectDetection is an object that a neural network has found in an image
type ObjectDetection struct {
	Class      int     `json:"class"`
	Confidence float32 `json:"confidence"`
	Box        Rect    `json:"box"`
}

// ImageLabels contains the detections for one image.
// Records are created once by a batch run and never mutated thereafter.
type ImageLabels struct {
	Image   string            `json:"image"` // Image path, unique within a batch
	Width   int               `json:"width,omitempty"`
	Height  int               `json:"height,omitempty"`
	Taken   *time.Time        `json:"taken,omitempty"` // EXIF capture time, if the camera stamped one
	Objects []ObjectDetection `json:"objects"`
}

// MaxConfidence returns the highest confidence of any detection in the record,
// or 0 if there are no detections.
func (m *ImageLabels) MaxConfidence() float32 {
	best := float32(0)
	for _, obj := range m.Objects {
		if obj.Confidence > best {
			best = obj.Confidence
		}
	}
	return best
}

// IsPositive returns true if at least one detection meets the threshold.
// An image with no detections is always negative.
func (m *ImageLabels) IsPositive(threshold float32) bool {
	for _, obj := range m.Objects {
		if obj.Confidence >= threshold {
			return true
		}
	}
	return false
}

// BatchLabels contains labels for every image in a batch run
type BatchLabels struct {
	Model      string         `json:"model,omitempty"` // Name of the model that produced the detections
	Categories map[int]string `json:"categories"`      // Category ID -> human readable label
	Images     []*ImageLabels `json:"images"`
}

// Find returns the record for the given image path, or nil
func (b *BatchLabels) Find(image string) *ImageLabels {
	for _, m := range b.Images {
		if m.Image == image {
			return m
		}
	}
	return nil
}

// CountPositive returns the number of images that classify positive at the threshold
func (b *BatchLabels) CountPositive(threshold float32) int {
	n := 0
	for _, m := range b.Images {
		if m.IsPositive(threshold) {
			n++
		}
	}
	return n
}
