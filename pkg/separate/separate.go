package separate

// Package separate sorts the source images of a detections document into
// "Animal" and "No-animal" folders, by the confidence threshold rule.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cyclopcam/logs"
	"github.com/trailcam/trailsort/pkg/artifact"
	"github.com/trailcam/trailsort/pkg/iox"
	"github.com/trailcam/trailsort/pkg/nn"
)

const (
	PositiveFolder = "Animal"
	NegativeFolder = "No-animal"
)

type Options struct {
	ArtifactPath string  // Detections JSON document (artifact.Write output)
	SourceRoot   string  // Directory that image keys in the document are relative to
	DestRoot     string  // Directory that receives the Animal / No-animal folders
	Threshold    float32 // Minimum confidence for a positive verdict
}

type Result struct {
	Copied   int // Files successfully copied. This is the success signal.
	Positive int // Copies that landed in Animal
	Negative int // Copies that landed in No-animal
	Missing  int // Records whose source file no longer exists
	Failed   int // Copies that failed with an IO error
}

// Separate copies every image referenced by the document into exactly one of
// DestRoot/Animal or DestRoot/No-animal. Source files are never moved or
// modified, and copies overwrite, so re-running is idempotent.
// A missing source file or a failed copy is logged and counted, but does not
// abort the batch. A document that fails to load is fatal.
func Separate(log logs.Log, opts Options) (*Result, error) {
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("Threshold %v is not in [0,1]", opts.Threshold)
	}

	labels, err := artifact.Read(opts.ArtifactPath)
	if err != nil {
		return nil, err
	}

	positiveDir := filepath.Join(opts.DestRoot, PositiveFolder)
	negativeDir := filepath.Join(opts.DestRoot, NegativeFolder)
	for _, dir := range []string{positiveDir, negativeDir} {
		if err := os.MkdirAll(dir, 0775); err != nil {
			return nil, fmt.Errorf("Failed to create destination folder %v: %w", dir, err)
		}
	}

	result := &Result{}
	copiedTo := map[string]string{} // destination path -> source image key
	for _, m := range labels.Images {
		src := filepath.Join(opts.SourceRoot, filepath.FromSlash(m.Image))
		if _, err := os.Stat(src); err != nil {
			log.Warnf("Source image %v is gone, skipping (%v)", m.Image, err)
			result.Missing++
			continue
		}
		positive := m.IsPositive(opts.Threshold)
		dstDir := negativeDir
		if positive {
			dstDir = positiveDir
		}
		dst := filepath.Join(dstDir, filepath.Base(src))
		if prev, ok := copiedTo[dst]; ok {
			// Two sources sharing a basename (eg recursive mode). The copy
			// still happens, so Copied stays honest, but only one survives.
			log.Warnf("Destination %v: %v overwrites the copy of %v", dst, m.Image, prev)
		}
		if err := iox.CopyFile(src, dst); err != nil {
			log.Warnf("Failed to copy %v to %v: %v", m.Image, dst, err)
			result.Failed++
			continue
		}
		copiedTo[dst] = m.Image
		if positive {
			result.Positive++
		} else {
			result.Negative++
		}
		result.Copied++
	}
	log.Infof("Separated %v images into %v: %v animal, %v no-animal, %v missing, %v failed",
		result.Copied, opts.DestRoot, result.Positive, result.Negative, result.Missing, result.Failed)
	return result, nil
}

// Verdicts returns the per-image verdicts of a document without copying
// anything, keyed by image path.
func Verdicts(labels *nn.BatchLabels, threshold float32) map[string]bool {
	verdicts := map[string]bool{}
	for _, m := range labels.Images {
		verdicts[m.Image] = m.IsPositive(threshold)
	}
	return verdicts
}
