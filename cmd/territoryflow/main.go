package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"cabgcompare/pkg/comparison"
	"cabgcompare/pkg/config"
	"cabgcompare/pkg/meshio"
	"cabgcompare/pkg/report"
	"cabgcompare/pkg/territory"
)

func main() {
	// Parse command line arguments
	inputMBF := flag.String("input", "", "MBF territory map (.vtu)")
	labelsPath := flag.String("labels", "", "Territory label file (default: <input base>_Labels.dat)")
	arrayName := flag.String("array", "ImageScalars", "Name of the MBF array")
	territoryField := flag.String("territory-field", territory.DefaultField, "Name of the territory label array")
	tag := flag.String("tag", "", "Territory tag; every label whose name contains it is summed")
	unit := flag.String("unit", "mm", "Length unit of the map: mm or cm")
	outputDir := flag.String("output-dir", ".", "Directory for the <base>_MBFxVolume_<tag>.dat summary")
	flag.Parse()

	if *inputMBF == "" || *tag == "" {
		flag.Usage()
		os.Exit(1)
	}
	if *labelsPath == "" {
		*labelsPath = strings.TrimSuffix(*inputMBF, filepath.Ext(*inputMBF)) + "_Labels.dat"
	}

	cfg := config.DefaultConfig()
	u, err := config.ParseUnit(*unit)
	if err != nil {
		log.Fatalf("Invalid -unit: %v", err)
	}
	cfg.Physical.Unit = u
	cfg.Inputs.MBFField = *arrayName
	cfg.Inputs.TerritoryField = *territoryField
	driver, err := comparison.NewDriver(cfg)
	if err != nil {
		log.Fatalf("Failed to configure: %v", err)
	}

	volume, err := meshio.ReadFile(*inputMBF)
	if err != nil {
		log.Fatalf("Failed to read MBF map: %v", err)
	}
	labels, err := territory.ReadLabelFile(*labelsPath)
	if err != nil {
		log.Fatalf("Failed to read labels: %v", err)
	}

	s, err := driver.Subtended(volume, labels, *tag)
	if err != nil {
		log.Fatalf("Flow extraction failed: %v", err)
	}

	fmt.Printf("Flow = %v mL/min\n", report.TruncateFlow(s.Flow.TotalFlow))
	fmt.Printf("Cells: %d, territory volume: %.6g mL\n", s.Flow.CellCount, s.Flow.TotalVolume)
	if s.Flow.HasData() {
		fmt.Printf("Average cell volume: %.6g %s^3\n", s.Flow.AverageCellVolume, driver.Integrator.Constants().Unit)
		fmt.Printf("MBF mean %.6g, median %.6g\n", s.MBF.Mean, s.MBF.Median)
	} else {
		fmt.Printf("No label matches %q\n", *tag)
	}

	out := filepath.Join(*outputDir, report.FlowFileName(*inputMBF, *tag))
	if err := report.WriteFlowFile(out, s.Tags, s.Flow.TotalFlow); err != nil {
		log.Fatalf("Failed to write flow summary: %v", err)
	}
	fmt.Printf("Flow summary saved to: %s\n", out)
}
