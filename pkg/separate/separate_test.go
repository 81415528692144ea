package separate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
	"github.com/trailcam/trailsort/pkg/artifact"
	"github.com/trailcam/trailsort/pkg/nn"
)

// Write a detections document plus the source images it references,
// and return ready-to-use Options.
func setup(t *testing.T, labels *nn.BatchLabels, sources []string) Options {
	t.Helper()
	sourceRoot := t.TempDir()
	for _, name := range sources {
		require.NoError(t, os.WriteFile(filepath.Join(sourceRoot, name), []byte("jpeg bytes: "+name), 0664))
	}
	artifactPath := filepath.Join(t.TempDir(), "detections.json")
	require.NoError(t, artifact.Write(labels, artifactPath, artifact.WriteOptions{}))
	return Options{
		ArtifactPath: artifactPath,
		SourceRoot:   sourceRoot,
		DestRoot:     t.TempDir(),
		Threshold:    0.2,
	}
}

func record(image string, confidences ...float32) *nn.ImageLabels {
	m := &nn.ImageLabels{Image: image}
	for _, c := range confidences {
		m.Objects = append(m.Objects, nn.ObjectDetection{Class: nn.WildlifeAnimal, Confidence: c, Box: nn.MakeRect(0, 0, 10, 10)})
	}
	return m
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSeparate(t *testing.T) {
	labels := &nn.BatchLabels{
		Categories: nn.WildlifeCategories(nn.WildlifeClasses),
		Images: []*nn.ImageLabels{
			record("img1.jpg", 0.5), // above threshold: Animal
			record("img2.jpg", 0.1), // below threshold: No-animal
			record("img3.jpg"),      // no detections: No-animal
		},
	}
	opts := setup(t, labels, []string{"img1.jpg", "img2.jpg", "img3.jpg"})

	result, err := Separate(logs.NewTestingLog(t), opts)
	require.NoError(t, err)
	require.Equal(t, 3, result.Copied)
	require.Equal(t, 1, result.Positive)
	require.Equal(t, 2, result.Negative)
	require.Equal(t, 0, result.Missing)

	require.ElementsMatch(t, []string{"img1.jpg"}, listDir(t, filepath.Join(opts.DestRoot, PositiveFolder)))
	require.ElementsMatch(t, []string{"img2.jpg", "img3.jpg"}, listDir(t, filepath.Join(opts.DestRoot, NegativeFolder)))

	// Copies, not moves: sources still exist
	for _, name := range []string{"img1.jpg", "img2.jpg", "img3.jpg"} {
		_, err := os.Stat(filepath.Join(opts.SourceRoot, name))
		require.NoError(t, err)
	}

	// Copy contents are intact
	content, err := os.ReadFile(filepath.Join(opts.DestRoot, PositiveFolder, "img1.jpg"))
	require.NoError(t, err)
	require.Equal(t, "jpeg bytes: img1.jpg", string(content))
}

func TestSeparateIdempotent(t *testing.T) {
	labels := &nn.BatchLabels{
		Images: []*nn.ImageLabels{
			record("img1.jpg", 0.9),
			record("img2.jpg", 0.05),
		},
	}
	opts := setup(t, labels, []string{"img1.jpg", "img2.jpg"})

	first, err := Separate(logs.NewTestingLog(t), opts)
	require.NoError(t, err)
	second, err := Separate(logs.NewTestingLog(t), opts)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Partition property: every image in exactly one folder, never both
	positive := listDir(t, filepath.Join(opts.DestRoot, PositiveFolder))
	negative := listDir(t, filepath.Join(opts.DestRoot, NegativeFolder))
	require.ElementsMatch(t, []string{"img1.jpg"}, positive)
	require.ElementsMatch(t, []string{"img2.jpg"}, negative)
}

func TestSeparateMissingSource(t *testing.T) {
	labels := &nn.BatchLabels{
		Images: []*nn.ImageLabels{
			record("img1.jpg", 0.5),
			record("img4.jpg", 0.5), // referenced by the document, but never written to disk
		},
	}
	opts := setup(t, labels, []string{"img1.jpg"})

	result, err := Separate(logs.NewTestingLog(t), opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.Copied)
	require.Equal(t, 1, result.Missing)
	require.ElementsMatch(t, []string{"img1.jpg"}, listDir(t, filepath.Join(opts.DestRoot, PositiveFolder)))
}

func TestSeparateBasenameCollision(t *testing.T) {
	// Two subdirectory sources sharing a basename and a verdict land on the
	// same destination path: both count as copied, last writer survives
	sourceRoot := t.TempDir()
	for _, name := range []string{"cam1/x.jpg", "cam2/x.jpg"} {
		path := filepath.Join(sourceRoot, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0775))
		require.NoError(t, os.WriteFile(path, []byte("jpeg bytes: "+name), 0664))
	}
	labels := &nn.BatchLabels{
		Images: []*nn.ImageLabels{
			record("cam1/x.jpg", 0.9),
			record("cam2/x.jpg", 0.8),
		},
	}
	artifactPath := filepath.Join(t.TempDir(), "detections.json")
	require.NoError(t, artifact.Write(labels, artifactPath, artifact.WriteOptions{}))
	opts := Options{
		ArtifactPath: artifactPath,
		SourceRoot:   sourceRoot,
		DestRoot:     t.TempDir(),
		Threshold:    0.2,
	}

	result, err := Separate(logs.NewTestingLog(t), opts)
	require.NoError(t, err)
	require.Equal(t, 2, result.Copied)
	require.ElementsMatch(t, []string{"x.jpg"}, listDir(t, filepath.Join(opts.DestRoot, PositiveFolder)))

	content, err := os.ReadFile(filepath.Join(opts.DestRoot, PositiveFolder, "x.jpg"))
	require.NoError(t, err)
	require.Equal(t, "jpeg bytes: cam2/x.jpg", string(content))
}

func TestSeparateMalformedDocument(t *testing.T) {
	artifactPath := filepath.Join(t.TempDir(), "detections.json")
	require.NoError(t, os.WriteFile(artifactPath, []byte("{broken"), 0664))
	_, err := Separate(logs.NewTestingLog(t), Options{
		ArtifactPath: artifactPath,
		SourceRoot:   t.TempDir(),
		DestRoot:     t.TempDir(),
		Threshold:    0.2,
	})
	require.Error(t, err)
}

func TestSeparateBadThreshold(t *testing.T) {
	_, err := Separate(logs.NewTestingLog(t), Options{Threshold: 1.5})
	require.Error(t, err)
	_, err = Separate(logs.NewTestingLog(t), Options{Threshold: -0.1})
	require.Error(t, err)
}

func TestVerdicts(t *testing.T) {
	labels := &nn.BatchLabels{
		Images: []*nn.ImageLabels{
			record("a.jpg", 0.5),
			record("b.jpg", 0.1),
			record("c.jpg"),
		},
	}
	verdicts := Verdicts(labels, 0.2)
	require.Equal(t, map[string]bool{"a.jpg": true, "b.jpg": false, "c.jpg": false}, verdicts)
}
