package rundb

import (
	"github.com/cyclopcam/dbh"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// A Run is one batch detection pass over a source directory
type Run struct {
	BaseModel
	StartedAt     dbh.IntTime `json:"startedAt"`
	FinishedAt    dbh.IntTime `json:"finishedAt"`
	Model         string      `json:"model"`     // Name of the model that produced the detections
	Threshold     float64     `json:"threshold"` // Confidence threshold used for verdicts
	SourceDir     string      `json:"sourceDir"`
	ImageCount    int         `json:"imageCount"`
	PositiveCount int         `json:"positiveCount"`
	NegativeCount int         `json:"negativeCount"`
	CopiedCount   int         `json:"copiedCount"` // Files copied by the separation step (0 until separation runs)
}

// A RunImage is the verdict for one image within a Run
type RunImage struct {
	BaseModel
	RunID          int64        `json:"runID"`
	Image          string       `json:"image"`
	Taken          *dbh.IntTime `json:"taken,omitempty"` // EXIF capture time, if known
	MaxConfidence  float64      `json:"maxConfidence"`
	DetectionCount int          `json:"detectionCount"`
	Positive       bool         `json:"positive"`
}
