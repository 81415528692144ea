package batch

// Package batch runs an ObjectDetector over a directory of images and
// produces one ImageLabels record per image.

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/trailcam/trailsort/pkg/nn"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const DefaultBatchSize = 8

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

type Options struct {
	Dir       string              // Directory of source images
	Recursive bool                // Descend into subdirectories
	BatchSize int                 // Number of images read into memory per cycle. Zero value will use DefaultBatchSize.
	Classes   []string            // Class names to keep (eg ["animal"]). Empty keeps everything the model emits.
	Params    *nn.DetectionParams // nil for defaults
}

// ListImages returns the supported raster images inside dir, as slash paths
// relative to dir, sorted. Extension matching is case-insensitive.
func ListImages(dir string, recursive bool) ([]string, error) {
	images := []string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if imageExtensions[strings.ToLower(filepath.Ext(path))] {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			images = append(images, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(images)
	return images, nil
}

// Run detects objects in every image in opts.Dir, and returns one record per
// readable image. Images are processed sequentially, in batches of
// opts.BatchSize files read into memory at a time. An unreadable image is a
// logged skip; it produces no record.
func Run(ctx context.Context, log logs.Log, detector nn.ObjectDetector, opts Options) (*nn.BatchLabels, error) {
	params := opts.Params
	if params == nil {
		params = nn.NewDetectionParams()
	}
	confidenceFloor := params.ConfidenceThreshold
	if confidenceFloor == 0 {
		confidenceFloor = nn.DefaultConfidenceThreshold
	}
	mergeIoU := params.MergeIouThreshold
	if mergeIoU == 0 {
		mergeIoU = nn.DefaultMergeIouThreshold
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	config := detector.Config()

	// Build the set of category IDs that we're interested in.
	// Category IDs are 1-based indexes into the model's class list.
	var keepClass map[int]bool
	if len(opts.Classes) > 0 {
		nameToID := map[string]int{}
		for i, class := range config.Classes {
			nameToID[class] = i + 1
		}
		keepClass = map[int]bool{}
		for _, class := range opts.Classes {
			id, ok := nameToID[class]
			if !ok {
				return nil, fmt.Errorf("Class '%v' not found in model '%v'", class, config.Name)
			}
			keepClass[id] = true
		}
	}

	paths, err := ListImages(opts.Dir, opts.Recursive)
	if err != nil {
		return nil, fmt.Errorf("Failed to scan %v: %w", opts.Dir, err)
	}
	log.Infof("Running '%v' over %v images in %v (batch size %v)", config.Name, len(paths), opts.Dir, batchSize)

	labels := &nn.BatchLabels{
		Model:      config.Name,
		Categories: nn.WildlifeCategories(config.Classes),
	}
	nSkipped := 0

	for start := 0; start < len(paths); start += batchSize {
		end := min(start+batchSize, len(paths))
		for _, rel := range paths[start:end] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			data, err := os.ReadFile(filepath.Join(opts.Dir, filepath.FromSlash(rel)))
			if err != nil {
				log.Warnf("Skipping unreadable image %v: %v", rel, err)
				nSkipped++
				continue
			}
			objects, err := detector.DetectObjects(ctx, data)
			if err != nil {
				return nil, fmt.Errorf("Detection failed on %v: %w", rel, err)
			}

			m := &nn.ImageLabels{
				Image: rel,
				Taken: TakenTime(data),
			}
			m.Width, m.Height = probeDimensions(data)
			for _, obj := range objects {
				if obj.Confidence < confidenceFloor {
					continue
				}
				if keepClass != nil && !keepClass[obj.Class] {
					continue
				}
				m.Objects = append(m.Objects, obj)
			}
			m.Objects = nn.MergeDuplicates(m.Objects, mergeIoU)
			labels.Images = append(labels.Images, m)
		}
		log.Infof("Processed %v/%v images", end, len(paths))
	}
	if nSkipped != 0 {
		log.Warnf("Skipped %v unreadable images", nSkipped)
	}
	return labels, nil
}

// probeDimensions decodes just enough of the image to learn its size.
// Returns zeros if the format is unrecognized; dimensions are advisory.
func probeDimensions(data []byte) (width, height int) {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return config.Width, config.Height
}
