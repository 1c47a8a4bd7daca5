package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"cabgcompare/internal/models"
	"cabgcompare/pkg/meshio"
	"cabgcompare/pkg/stats"
	"cabgcompare/pkg/territory"
)

func main() {
	// Parse command line arguments
	input := flag.String("input", "", "MBF map (.vtu)")
	arrayName := flag.String("array", "ImageScalars", "Name of the MBF array to normalize")
	percentile := flag.Float64("percentile", 75, "Reference percentile")
	binary := flag.Bool("binary", true, "Write compressed binary arrays")
	cellData := flag.Bool("cell-data", false, "Also store a point-data index as cell data (mean of the cell's vertices)")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	ds, err := meshio.ReadFile(*input)
	if err != nil {
		log.Fatalf("Failed to read MBF map: %v", err)
	}

	n := stats.NewNormalizer()
	n.Percentile = *percentile
	ref, index, err := n.NormalizeByName(ds, *arrayName)
	if err != nil {
		log.Fatalf("Normalization failed: %v", err)
	}

	if *cellData && index.Association == models.PointData {
		if _, err := territory.PointToCell(ds, index.Name); err != nil {
			log.Fatalf("Failed to convert %s to cell data: %v", index.Name, err)
		}
	}

	out := strings.TrimSuffix(*input, filepath.Ext(*input)) + "_Normalized.vtu"
	opts := &meshio.Options{}
	if *binary {
		opts = &meshio.Options{Encoding: meshio.Binary, Compress: true}
	}
	if err := meshio.WriteFile(out, ds, opts); err != nil {
		log.Fatalf("Failed to write normalized map: %v", err)
	}
	fmt.Printf("%vth percentile of %s: %.6g\n", *percentile, *arrayName, ref)
	fmt.Printf("%s (%s data) saved to: %s\n", index.Name, index.Association, out)
}
