package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"cabgcompare/internal/monitoring"
	"cabgcompare/pkg/comparison"
	"cabgcompare/pkg/config"
	"cabgcompare/pkg/report"
	"cabgcompare/pkg/stats"
)

// tagList collects a repeatable -tag flag.
type tagList []string

func (t *tagList) String() string { return strings.Join(*t, ",") }

func (t *tagList) Set(v string) error {
	*t = append(*t, v)
	return nil
}

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Pre-CABG folder; the post folder is its name with the last character replaced by B")
	configPath := flag.String("config", "cabgcompare.yaml", "YAML configuration file (defaults are used when missing)")
	initConfig := flag.Bool("init-config", false, "Write the default configuration to -config and exit")
	unit := flag.String("unit", "", "Length unit of the meshes: mm or cm (overrides config)")
	mbf := flag.String("mbf", "", "MBF territory map inside each folder (overrides config)")
	labels := flag.String("labels", "", "Territory label file inside each folder (overrides config)")
	cavity := flag.String("cavity", "", "Capped cavity surface inside Morphology/ (overrides config)")
	endo := flag.String("endocardium", "", "Endocardial surface inside Morphology/ (overrides config)")
	epi := flag.String("epicardium", "", "Epicardial surface inside Morphology/ (overrides config)")
	noMorphology := flag.Bool("no-morphology", false, "Skip cavity volume, surface area and wall thickness")
	sequential := flag.Bool("sequential", false, "Process the pre and post folders one after the other")
	reportPath := flag.String("report", "", "Statistics CSV; relative paths resolve against the pre folder (overrides config)")
	plotPath := flag.String("plot", "", "Optional PNG box plot of MBF per territory (overrides config)")
	quiet := flag.Bool("quiet", false, "Only print the final summary")
	var tags tagList
	flag.Var(&tags, "tag", "Territory group name matched against label names; repeat for several groups (overrides config)")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Validate inputs
	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *unit != "" {
		u, err := config.ParseUnit(*unit)
		if err != nil {
			log.Fatalf("Invalid -unit: %v", err)
		}
		cfg.Physical.Unit = u
	}
	override(&cfg.Inputs.MBF, *mbf)
	override(&cfg.Inputs.Labels, *labels)
	override(&cfg.Inputs.CavityCapped, *cavity)
	override(&cfg.Inputs.Endocardium, *endo)
	override(&cfg.Inputs.Epicardium, *epi)
	override(&cfg.Output.Report, *reportPath)
	override(&cfg.Output.Plot, *plotPath)
	if len(tags) > 0 {
		cfg.Territories = tags
	}
	if *noMorphology {
		cfg.Processing.Morphology = false
	}
	if *sequential {
		cfg.Processing.Parallel = false
	}
	if *quiet {
		cfg.Output.Verbose = false
	}
	if !cfg.Output.Verbose {
		monitoring.SetLogger(nil)
	}

	fmt.Println("================================")
	fmt.Println("PRE/POST CABG TERRITORY FLOW AND MORPHOLOGY COMPARISON")
	fmt.Println("================================")

	driver, err := comparison.NewDriver(cfg)
	if err != nil {
		log.Fatalf("Failed to configure comparison: %v", err)
	}

	startTime := time.Now()
	result, err := driver.Run(context.Background(), *inputDir)
	if err != nil {
		log.Fatalf("Comparison failed: %v", err)
	}
	rows := result.Table()

	out := resolve(*inputDir, cfg.Output.Report)
	if err := report.WriteCSVFile(out, rows); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	fmt.Printf("\nComparison completed in %.2f seconds\n", time.Since(startTime).Seconds())
	fmt.Printf("Statistics report saved to: %s\n", out)

	if cfg.Output.Plot != "" {
		plotOut := resolve(*inputDir, cfg.Output.Plot)
		if err := report.WriteBoxPlot(plotOut, result.BoxSeries()); err != nil {
			log.Printf("Warning: Failed to write box plot: %v", err)
		} else {
			fmt.Printf("Box plot saved to: %s\n", plotOut)
		}
	}
	if m := result.Pre.Morphology; m != nil {
		fmt.Printf("Wall thickness surfaces saved to:\n%s\n%s\n", m.Surface, result.Post.Morphology.Surface)
	}

	fmt.Println("\nTerritory flow (mL/min):")
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "group\tpre\tpost\tchange\tavg pre\tavg post\tmean index pre\tmean index post")
	for _, g := range result.Groups() {
		var flowRow, avgRow, meanRow comparison.Row
		for _, r := range rows {
			if r.Group != g {
				continue
			}
			switch r.Statistic {
			case comparison.StatFlow:
				flowRow = r
			case comparison.StatAvgFlow:
				avgRow = r
			case string(stats.StatMean):
				meanRow = r
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", g, flowRow.A, flowRow.B, change(flowRow),
			avgRow.A, avgRow.B, meanRow.IndexA, meanRow.IndexB)
	}
	tw.Flush()
}

// change formats the relative post-operative flow change of a row.
func change(r comparison.Row) string {
	if !r.A.Valid() || !r.B.Valid() || r.A.Number == 0 {
		return "-"
	}
	return fmt.Sprintf("%+.1f%%", 100*(r.B.Number-r.A.Number)/r.A.Number)
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
