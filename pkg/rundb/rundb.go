package rundb

// Package rundb records batch runs and their per-image verdicts in a local
// SQLite database, so that past runs can be reported on without re-reading
// their JSON documents.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/trailcam/trailsort/pkg/nn"
	"gorm.io/gorm"
)

type RunDB struct {
	log logs.Log
	db  *gorm.DB
}

// Open or create a run DB at root/runs.sqlite
func Open(log logs.Log, root string) (*RunDB, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0775); err != nil {
		return nil, fmt.Errorf("Failed to create run DB storage path '%v': %w", root, err)
	}
	dbPath := filepath.Join(root, "runs.sqlite")
	db, err := dbh.OpenDB(log, dbh.MakeSqliteConfig(dbPath), Migrations(log), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open run database %v: %w", dbPath, err)
	}
	return &RunDB{
		log: log,
		db:  db,
	}, nil
}

// RecordRun writes a Run row plus one RunImage row per record, and returns
// the new run's ID. Verdicts are computed at the given threshold.
func (r *RunDB) RecordRun(labels *nn.BatchLabels, sourceDir string, threshold float32, startedAt time.Time) (int64, error) {
	run := &Run{
		StartedAt:  dbh.MakeIntTime(startedAt),
		FinishedAt: dbh.MakeIntTime(time.Now()),
		Model:      labels.Model,
		Threshold:  float64(threshold),
		SourceDir:  sourceDir,
		ImageCount: len(labels.Images),
	}
	for _, m := range labels.Images {
		if m.IsPositive(threshold) {
			run.PositiveCount++
		} else {
			run.NegativeCount++
		}
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		for _, m := range labels.Images {
			img := &RunImage{
				RunID:          run.ID,
				Image:          m.Image,
				MaxConfidence:  float64(m.MaxConfidence()),
				DetectionCount: len(m.Objects),
				Positive:       m.IsPositive(threshold),
			}
			if m.Taken != nil {
				taken := dbh.MakeIntTime(*m.Taken)
				img.Taken = &taken
			}
			if err := tx.Create(img).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("Failed to record run: %w", err)
	}
	r.log.Infof("Recorded run %v: %v images, %v positive, %v negative", run.ID, run.ImageCount, run.PositiveCount, run.NegativeCount)
	return run.ID, nil
}

// SetCopiedCount stores the separation step's copied-file count on a run
func (r *RunDB) SetCopiedCount(runID int64, copied int) error {
	return r.db.Model(&Run{}).Where("id = ?", runID).Update("copied_count", copied).Error
}

// LatestRun returns the most recently started run, or nil if there are none
func (r *RunDB) LatestRun() (*Run, error) {
	run := &Run{}
	err := r.db.Order("started_at DESC, id DESC").First(run).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return run, nil
}

// Images returns the per-image verdicts of a run, ordered by image path
func (r *RunDB) Images(runID int64) ([]RunImage, error) {
	images := []RunImage{}
	err := r.db.Where("run_id = ?", runID).Order("image").Find(&images).Error
	return images, err
}
