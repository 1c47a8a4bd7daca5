package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"cabgcompare/pkg/meshio"
	"cabgcompare/pkg/morphology"
)

func main() {
	// Parse command line arguments
	input := flag.String("input", "", "Closed surface (.vtp or .stl)")
	clean := flag.Bool("clean", true, "Triangulate and weld duplicate vertices first")
	epsilon := flag.Float64("epsilon", 1e-8, "Weld distance")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	ds, err := meshio.ReadFile(*input)
	if err != nil {
		log.Fatalf("Failed to read surface: %v", err)
	}
	props, err := morphology.ComputeMassProperties(ds, *clean, *epsilon)
	if err != nil {
		log.Fatalf("Failed to measure surface: %v", err)
	}
	fmt.Printf("Volume: %.6g\n", props.Volume)
	fmt.Printf("Surface area: %.6g\n", props.Area)
	b := ds.Bounds()
	fmt.Printf("Bounds: (%.6g, %.6g, %.6g) - (%.6g, %.6g, %.6g)\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}
