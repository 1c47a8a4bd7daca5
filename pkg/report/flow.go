package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TruncateFlow drops everything past the second decimal, the precision
// subtended flow is reported at.
func TruncateFlow(x float64) float64 {
	return math.Trunc(x*100) / 100
}

// FlowFileName returns "<base>_MBFxVolume_<tag>.dat" for the MBF map mbfPath.
func FlowFileName(mbfPath, tag string) string {
	base := filepath.Base(mbfPath)
	return fmt.Sprintf("%s_MBFxVolume_%s.dat", strings.TrimSuffix(base, filepath.Ext(base)), tag)
}

// WriteFlow writes the territory tags that were summed and their flow in
// mL/min.
func WriteFlow(w io.Writer, tags string, flow float64) error {
	_, err := fmt.Fprintf(w, "Territory Tags:\n%s\nTerritory Flow: %s mL/min", tags, formatFlow(flow))
	return err
}

// WriteFlowFile writes the flow summary to path.
func WriteFlowFile(path, tags string, flow float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteFlow(f, tags, flow); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatFlow always keeps a decimal point so whole numbers read "12.0".
func formatFlow(flow float64) string {
	s := strconv.FormatFloat(TruncateFlow(flow), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
