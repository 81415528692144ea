package artifact

// Package artifact reads and writes the detections JSON document produced by
// a batch run. The document's top level maps image identifiers to their
// detections, plus a categories legend:
//
//	{
//	  "model": "megadetector-v5a",
//	  "categories": { "1": "animal", "2": "person", "3": "vehicle" },
//	  "images": {
//	    "2024-06-01/IMG_0042.JPG": [
//	      { "class_id": 1, "confidence": 0.91, "box": [10, 20, 200, 180] }
//	    ]
//	  }
//	}

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/trailcam/trailsort/pkg/iox"
	"github.com/trailcam/trailsort/pkg/nn"
)

// ErrSchema indicates a detection record that violates the document schema,
// eg a missing confidence field. Test with errors.Is.
var ErrSchema = errors.New("malformed detection record")

type detectionJSON struct {
	ClassID    int      `json:"class_id"`
	Confidence *float32 `json:"confidence"`
	Box        *nn.Rect `json:"box,omitempty"`
}

type documentJSON struct {
	Model      string                     `json:"model,omitempty"`
	Categories map[int]string             `json:"categories"`
	Images     map[string][]detectionJSON `json:"images"`
}

// WriteOptions control the shape of the persisted document
type WriteOptions struct {
	ExcludeClasses []int  // Category IDs to omit from the document
	StripPrefix    string // Path prefix to strip from image keys, for portability
}

// Write persists the labels to an indented JSON document at dest.
// Parent directories are created if absent, and an existing document is
// overwritten. The write is atomic, so a crash can't leave a torn document.
func Write(labels *nn.BatchLabels, dest string, opts WriteOptions) error {
	excluded := map[int]bool{}
	for _, id := range opts.ExcludeClasses {
		excluded[id] = true
	}

	doc := documentJSON{
		Model:      labels.Model,
		Categories: labels.Categories,
		Images:     map[string][]detectionJSON{},
	}
	for _, m := range labels.Images {
		key := m.Image
		if opts.StripPrefix != "" {
			key = strings.TrimPrefix(key, opts.StripPrefix)
			key = strings.TrimPrefix(key, "/")
		}
		dets := []detectionJSON{}
		for i := range m.Objects {
			obj := &m.Objects[i]
			if excluded[obj.Class] {
				continue
			}
			box := obj.Box
			confidence := obj.Confidence
			dets = append(dets, detectionJSON{
				ClassID:    obj.Class,
				Confidence: &confidence,
				Box:        &box,
			})
		}
		doc.Images[key] = dets
	}

	raw, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return err
	}
	if err := iox.WriteFileAtomic(dest, raw); err != nil {
		return fmt.Errorf("Failed to write detections to %v: %w", dest, err)
	}
	return nil
}

// Read loads a detections document and validates it.
// A document that is not valid JSON, or a record that violates the schema
// (missing or out-of-range confidence), fails the whole load.
// Images are returned sorted by path, so runs are deterministic.
func Read(path string) (*nn.BatchLabels, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to read detections from %v: %w", path, err)
	}
	doc := documentJSON{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("Failed to parse detections in %v: %w", path, err)
	}

	labels := &nn.BatchLabels{
		Model:      doc.Model,
		Categories: doc.Categories,
	}
	keys := make([]string, 0, len(doc.Images))
	for key := range doc.Images {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		m := &nn.ImageLabels{
			Image: key,
		}
		for i, det := range doc.Images[key] {
			if det.Confidence == nil {
				return nil, fmt.Errorf("%w: %v detection %v has no confidence", ErrSchema, key, i)
			}
			if *det.Confidence < 0 || *det.Confidence > 1 || *det.Confidence != *det.Confidence {
				return nil, fmt.Errorf("%w: %v detection %v confidence %v is not in [0,1]", ErrSchema, key, i, *det.Confidence)
			}
			box := nn.Rect{}
			if det.Box != nil {
				box = *det.Box
			}
			m.Objects = append(m.Objects, nn.ObjectDetection{
				Class:      det.ClassID,
				Confidence: *det.Confidence,
				Box:        box,
			})
		}
		labels.Images = append(labels.Images, m)
	}
	return labels, nil
}
