// Package meshio reads and writes the surface and volume files exchanged
// with the segmentation tools: VTK XML UnstructuredGrid (.vtu) and
// PolyData (.vtp), and STL for field-less surfaces.
package meshio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cabgcompare/internal/models"
)

// ErrUnsupportedFormat is returned for unknown extensions or encodings.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// ReadFile reads a dataset, choosing the decoder from the file extension.
func ReadFile(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ds *models.Dataset
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".vtu", ".vtp":
		ds, err = ReadVTK(f)
	case ".stl":
		ds, err = ReadSTL(f)
	default:
		return nil, fmt.Errorf("%s: %w %q", path, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ds, nil
}

// WriteFile writes ds, choosing the encoder from the file extension. A .vtu
// path always produces an UnstructuredGrid and a .vtp path a PolyData file.
func WriteFile(path string, ds *models.Dataset, opts *Options) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".vtu", ".vtp", ".stl":
	default:
		return fmt.Errorf("%s: %w %q", path, ErrUnsupportedFormat, ext)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	switch ext {
	case ".vtu":
		err = WriteVTK(f, ds, models.UnstructuredGrid, opts)
	case ".vtp":
		err = WriteVTK(f, ds, models.PolyData, opts)
	case ".stl":
		err = WriteSTL(f, ds)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
