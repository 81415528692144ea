package nn

import (
	flatbush "github.com/bmharper/flatbush-go"
)

// Scan all pairs of detections in 'input', and if two detections share a class
// and their IoU is at least minIoU, then keep only the higher confidence one.
// Batch inference on large images tends to emit near-duplicate boxes for the
// same subject, and we don't want those double-counted downstream.
// Returns the list of detections that should be retained, in input order.
func MergeDuplicates(input []ObjectDetection, minIoU float32) []ObjectDetection {
	if len(input) < 2 {
		return input
	}

	// Create spatial index to avoid O(N^2) comparisons
	fb := flatbush.NewFlatbush[float32]()
	fb.Reserve(len(input))
	for _, obj := range input {
		fb.Add(obj.Box.X1, obj.Box.Y1, obj.Box.X2, obj.Box.Y2)
	}
	fb.Finish()

	// The detections that we've already merged away
	deleted := map[int]bool{}
	nChanged := 1

	for nChanged != 0 {
		nChanged = 0
		for i, in := range input {
			if deleted[i] {
				continue
			}
			for _, j := range fb.Search(in.Box.X1, in.Box.Y1, in.Box.X2, in.Box.Y2) {
				if i == j {
					continue
				}
				if deleted[j] {
					continue
				}
				if input[j].Class != in.Class {
					continue
				}
				if input[j].Confidence > in.Confidence {
					// 'j' wins; 'i' gets deleted when we reach the pair from the other side
					continue
				}
				if in.Box.IOU(input[j].Box) >= minIoU {
					deleted[j] = true
					nChanged++
				}
			}
		}
	}

	retain := make([]ObjectDetection, 0, len(input))
	for i := range input {
		if !deleted[i] {
			retain = append(retain, input[i])
		}
	}
	return retain
}
