package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/trailcam/trailsort/pkg/artifact"
	"github.com/trailcam/trailsort/pkg/batch"
	"github.com/trailcam/trailsort/pkg/nn"
	"github.com/trailcam/trailsort/pkg/remote"
	"github.com/trailcam/trailsort/pkg/rundb"
	"github.com/trailcam/trailsort/pkg/separate"
)

type pipelineOptions struct {
	input        string
	output       string
	server       string
	threshold    float32
	batchSize    int
	classes      []string
	exclude      []int
	stripPrefix  string
	recursive    bool
	annotate     bool
	separateOnly bool
}

func main() {
	parser := argparse.NewParser("trailsort", "Run a wildlife detector over a directory of camera trap images, and sort them into Animal / No-animal folders")
	input := parser.String("i", "input", &argparse.Options{Help: "Directory of source images", Required: true})
	output := parser.String("o", "output", &argparse.Options{Help: "Output directory (detections JSON, run database, classified folders)", Required: true})
	server := parser.String("s", "server", &argparse.Options{Help: "Inference server URL, eg http://127.0.0.1:8404", Default: ""})
	threshold := parser.Float("t", "threshold", &argparse.Options{Help: "Minimum confidence for an image to classify as Animal", Default: float64(nn.DefaultConfidenceThreshold)})
	batchSize := parser.Int("b", "batchsize", &argparse.Options{Help: "Number of images read into memory per cycle", Default: batch.DefaultBatchSize})
	classes := parser.String("c", "classes", &argparse.Options{Help: "Comma-separated list of named classes to keep (default: all model classes)", Default: ""})
	exclude := parser.String("x", "exclude", &argparse.Options{Help: "Comma-separated category IDs to omit from the detections JSON", Default: ""})
	stripPrefix := parser.String("", "strip-prefix", &argparse.Options{Help: "Path prefix to strip from image keys in the detections JSON", Default: ""})
	recursive := parser.Flag("r", "recursive", &argparse.Options{Help: "Descend into subdirectories of the input directory", Default: false})
	annotate := parser.Flag("a", "annotate", &argparse.Options{Help: "Render annotated copies of positive images", Default: false})
	separateOnly := parser.Flag("", "separate-only", &argparse.Options{Help: "Skip inference, and sort images using an existing detections JSON", Default: false})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	copied, err := run(logger, pipelineOptions{
		input:        *input,
		output:       *output,
		server:       *server,
		threshold:    float32(*threshold),
		batchSize:    *batchSize,
		classes:      splitList(*classes),
		exclude:      parseIDs(*exclude),
		stripPrefix:  *stripPrefix,
		recursive:    *recursive,
		annotate:     *annotate,
		separateOnly: *separateOnly,
	})
	if err != nil {
		logger.Errorf("%v", err)
		logger.Close()
		os.Exit(1)
	}
	fmt.Printf("%v\n", copied)
}

// run executes the pipeline and returns the copied-file count.
// It returns instead of exiting, so that deferred cleanup runs on all paths.
func run(logger logs.Log, opts pipelineOptions) (int, error) {
	if !opts.separateOnly && opts.server == "" {
		return 0, fmt.Errorf("Either --server or --separate-only is required")
	}

	artifactPath := filepath.Join(opts.output, "detections.json")
	runID := int64(0)
	var db *rundb.RunDB

	if !opts.separateOnly {
		detector, err := remote.NewDetector(logger, opts.server)
		if err != nil {
			return 0, err
		}
		defer detector.Close()

		startedAt := time.Now()
		labels, err := batch.Run(context.Background(), logger, detector, batch.Options{
			Dir:       opts.input,
			Recursive: opts.recursive,
			BatchSize: opts.batchSize,
			Classes:   opts.classes,
		})
		if err != nil {
			return 0, err
		}

		err = artifact.Write(labels, artifactPath, artifact.WriteOptions{
			ExcludeClasses: opts.exclude,
			StripPrefix:    opts.stripPrefix,
		})
		if err != nil {
			return 0, err
		}
		logger.Infof("Wrote detections for %v images to %v", len(labels.Images), artifactPath)

		db, err = rundb.Open(logger, opts.output)
		if err != nil {
			return 0, err
		}
		runID, err = db.RecordRun(labels, opts.input, opts.threshold, startedAt)
		if err != nil {
			return 0, err
		}

		if opts.annotate {
			n, err := artifact.Annotate(logger, labels, opts.input, filepath.Join(opts.output, "annotated"), opts.threshold)
			if err != nil {
				return 0, err
			}
			logger.Infof("Rendered %v annotated images", n)
		}
	}

	result, err := separate.Separate(logger, separate.Options{
		ArtifactPath: artifactPath,
		SourceRoot:   opts.input,
		DestRoot:     filepath.Join(opts.output, "classified"),
		Threshold:    opts.threshold,
	})
	if err != nil {
		return 0, err
	}

	if db != nil {
		if err := db.SetCopiedCount(runID, result.Copied); err != nil {
			return 0, err
		}
	}
	return result.Copied, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func parseIDs(s string) []int {
	ids := []int{}
	for _, p := range splitList(s) {
		id, err := strconv.Atoi(p)
		if err != nil {
			fmt.Printf("Ignoring invalid category ID '%v'\n", p)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
