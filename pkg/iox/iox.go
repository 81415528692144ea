package iox

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func WriteStreamToFile(dstFilename string, src io.Reader) error {
	dstFile, err := os.Create(dstFilename)
	if err != nil {
		return err
	}
	defer dstFile.Close()
	_, err = io.Copy(dstFile, src)
	if err != nil {
		os.Remove(dstFilename)
		return err
	}
	return nil
}

// CopyFile copies src to dst, overwriting dst if it already exists
func CopyFile(srcFilename, dstFilename string) error {
	srcFile, err := os.Open(srcFilename)
	if err != nil {
		return err
	}
	defer srcFile.Close()
	return WriteStreamToFile(dstFilename, srcFile)
}

// WriteFileAtomic writes content to a temporary file next to dstFilename,
// then renames it into place, so that a crash can't leave a half-written file.
// Parent directories are created if absent.
func WriteFileAtomic(dstFilename string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(dstFilename), 0775); err != nil {
		return fmt.Errorf("Failed to create directory for %v: %w", dstFilename, err)
	}
	tempFile := dstFilename + ".tmp"
	if err := os.WriteFile(tempFile, content, 0664); err != nil {
		return err
	}
	if err := os.Rename(tempFile, dstFilename); err != nil {
		os.Remove(tempFile)
		return err
	}
	return nil
}
