package artifact

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/fogleman/gg"
	"github.com/trailcam/trailsort/pkg/nn"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Annotate renders copies of all positive images into destDir, with their
// above-threshold detections drawn as labelled boxes. Image keys in 'labels'
// are resolved relative to sourceRoot. A missing or undecodable source image
// is a logged skip, not a failure.
// Returns the number of images rendered.
func Annotate(log logs.Log, labels *nn.BatchLabels, sourceRoot, destDir string, threshold float32) (int, error) {
	if err := os.MkdirAll(destDir, 0775); err != nil {
		return 0, fmt.Errorf("Failed to create annotation directory %v: %w", destDir, err)
	}
	classes := classSlice(labels.Categories)
	nRendered := 0
	for _, m := range labels.Images {
		if !m.IsPositive(threshold) {
			continue
		}
		src := filepath.Join(sourceRoot, filepath.FromSlash(m.Image))
		img, err := gg.LoadImage(src)
		if err != nil {
			log.Warnf("Skipping annotation of %v: %v", m.Image, err)
			continue
		}
		dc := gg.NewContextForImage(img)
		for _, obj := range m.Objects {
			if obj.Confidence < threshold {
				continue
			}
			caption := fmt.Sprintf("%v %.2f", nn.ClassLabel(classes, obj.Class), obj.Confidence)
			dc.SetRGB(1, 0, 0)
			dc.SetLineWidth(3)
			dc.DrawRectangle(float64(obj.Box.X1), float64(obj.Box.Y1), float64(obj.Box.Width()), float64(obj.Box.Height()))
			dc.Stroke()
			dc.DrawString(caption, float64(obj.Box.X1), float64(obj.Box.Y1)-4)
		}
		dst := filepath.Join(destDir, filepath.Base(m.Image))
		if err := saveImage(dc, dst); err != nil {
			log.Warnf("Failed to save annotated %v: %v", m.Image, err)
			continue
		}
		nRendered++
	}
	return nRendered, nil
}

func saveImage(dc *gg.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".jpg" || ext == ".jpeg" {
		return jpeg.Encode(f, dc.Image(), &jpeg.Options{Quality: 90})
	}
	return png.Encode(f, dc.Image())
}

// Rebuild the 1-based class slice from a categories map
func classSlice(categories map[int]string) []string {
	maxID := 0
	for id := range categories {
		if id > maxID {
			maxID = id
		}
	}
	classes := make([]string, maxID)
	for id, label := range categories {
		if id >= 1 {
			classes[id-1] = label
		}
	}
	return classes
}
