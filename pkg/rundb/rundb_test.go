package rundb

import (
	"testing"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
	"github.com/trailcam/trailsort/pkg/nn"
)

func setup(t *testing.T) *RunDB {
	t.Helper()
	db, err := Open(logs.NewTestingLog(t), t.TempDir())
	require.NoError(t, err)
	return db
}

func TestRecordRun(t *testing.T) {
	db := setup(t)

	empty, err := db.LatestRun()
	require.NoError(t, err)
	require.Nil(t, empty)

	taken := time.Date(2026, 6, 1, 6, 30, 0, 0, time.UTC)
	labels := &nn.BatchLabels{
		Model:      "megadetector-v5a",
		Categories: nn.WildlifeCategories(nn.WildlifeClasses),
		Images: []*nn.ImageLabels{
			{
				Image: "deer.jpg",
				Taken: &taken,
				Objects: []nn.ObjectDetection{
					{Class: nn.WildlifeAnimal, Confidence: 0.9},
					{Class: nn.WildlifeAnimal, Confidence: 0.4},
				},
			},
			{Image: "empty.jpg"},
		},
	}

	runID, err := db.RecordRun(labels, "/data/camera1", 0.2, time.Now())
	require.NoError(t, err)
	require.NotZero(t, runID)

	run, err := db.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, run)
	require.Equal(t, runID, run.ID)
	require.Equal(t, "megadetector-v5a", run.Model)
	require.Equal(t, 2, run.ImageCount)
	require.Equal(t, 1, run.PositiveCount)
	require.Equal(t, 1, run.NegativeCount)
	require.Equal(t, 0, run.CopiedCount)

	images, err := db.Images(runID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	require.Equal(t, "deer.jpg", images[0].Image)
	require.True(t, images[0].Positive)
	require.InDelta(t, 0.9, images[0].MaxConfidence, 1e-6)
	require.Equal(t, 2, images[0].DetectionCount)
	require.NotNil(t, images[0].Taken)
	require.Equal(t, "empty.jpg", images[1].Image)
	require.False(t, images[1].Positive)
	require.Nil(t, images[1].Taken)

	require.NoError(t, db.SetCopiedCount(runID, 2))
	run, err = db.LatestRun()
	require.NoError(t, err)
	require.Equal(t, 2, run.CopiedCount)
}

func TestLatestRunPicksNewest(t *testing.T) {
	db := setup(t)
	labels := &nn.BatchLabels{Model: "fake", Images: []*nn.ImageLabels{{Image: "a.jpg"}}}

	first, err := db.RecordRun(labels, "/data", 0.2, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	second, err := db.RecordRun(labels, "/data", 0.5, time.Now())
	require.NoError(t, err)
	require.Greater(t, second, first)

	latest, err := db.LatestRun()
	require.NoError(t, err)
	require.Equal(t, second, latest.ID)
	require.Equal(t, 0.5, latest.Threshold)
}
