package remote

// Package remote is an ObjectDetector that talks to an inference server
// over HTTP. The server owns the model weights, the inference engine, and
// any GPU dispatch; we just ship it image files and read back detections.

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/trailcam/trailsort/pkg/nn"
	"github.com/trailcam/trailsort/pkg/requests"
)

type Detector struct {
	log     logs.Log
	baseURL string
	config  *nn.ModelConfig
}

type detectResponse struct {
	Objects []nn.ObjectDetection `json:"objects"`
}

// NewDetector connects to an inference server and fetches its model config.
// baseURL is eg "http://127.0.0.1:8404".
func NewDetector(log logs.Log, baseURL string) (*Detector, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	config, err := requests.RequestJSON[nn.ModelConfig](context.Background(), "GET", baseURL+"/api/model", nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to query inference server at %v: %w", baseURL, err)
	}
	if len(config.Classes) == 0 {
		return nil, fmt.Errorf("Inference server at %v reports a model with no classes", baseURL)
	}
	log.Infof("Connected to inference server %v, model '%v' (%v classes)", baseURL, config.Name, len(config.Classes))
	return &Detector{
		log:     log,
		baseURL: baseURL,
		config:  config,
	}, nil
}

func (d *Detector) Close() {
	http.DefaultClient.CloseIdleConnections()
}

func (d *Detector) Config() *nn.ModelConfig {
	return d.config
}

// DetectObjects sends the raw image file to the inference server
func (d *Detector) DetectObjects(ctx context.Context, imageData []byte) ([]nn.ObjectDetection, error) {
	resp, err := requests.RequestRawJSON[detectResponse](ctx, "POST", d.baseURL+"/api/detect", "application/octet-stream", bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("Inference request failed: %w", err)
	}
	return resp.Objects, nil
}
