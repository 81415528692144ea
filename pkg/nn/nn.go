package nn

import (
	"context"
	"encoding/json"
	"os"
)

// Package nn is the detection interface layer.
// To talk to an inference server, use the remote package.

const DefaultConfidenceThreshold = 0.2
const DefaultMergeIouThreshold = 0.8

// Detection filtering parameters
type DetectionParams struct {
	ConfidenceThreshold float32 // Value between 0 and 1. Detections below this are discarded before any further processing. Zero value will use the default.
	MergeIouThreshold   float32 // Value between 0 and 1. Same-class detections whose IoU is at least this are merged into one. Zero value will use the default.
}

// Create a default DetectionParams object
func NewDetectionParams() *DetectionParams {
	return &DetectionParams{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MergeIouThreshold:   DefaultMergeIouThreshold,
	}
}

// ObjectDetector is given an image, and returns zero or more detected objects.
// The image is the raw encoded file contents (eg JPEG bytes). Decoding is the
// detector's problem, because the detector may be on the other end of a socket.
type ObjectDetector interface {
	// Close closes the detector (you MUST call this when finished, so that
	// implementations can release sockets or other resources)
	Close()

	// DetectObjects returns a list of objects detected in the image
	DetectObjects(ctx context.Context, imageData []byte) ([]ObjectDetection, error)

	// Model Config.
	// Callers assume that ModelConfig will remain constant, so don't change it
	// once the detector has been created.
	Config() *ModelConfig
}

// ModelConfig describes the model behind an ObjectDetector
type ModelConfig struct {
	Name    string   `json:"name"`    // eg "megadetector-v5a"
	Classes []string `json:"classes"` // eg ["animal", "person", "vehicle"], indexed by category ID - 1
}

// Load model config from a JSON file
func LoadModelConfig(filename string) (*ModelConfig, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	config := &ModelConfig{}
	err = json.Unmarshal(b, config)
	if err != nil {
		return nil, err
	}
	return config, nil
}
