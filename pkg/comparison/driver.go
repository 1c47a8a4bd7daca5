// Package comparison runs the territory flow and morphology pipeline on a
// pre-operative folder and its post-operative pair and merges the results.
package comparison

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"cabgcompare/internal/monitoring"
	"cabgcompare/pkg/config"
	"cabgcompare/pkg/flow"
	"cabgcompare/pkg/morphology"
	"cabgcompare/pkg/stats"
	"cabgcompare/pkg/territory"
)

// Timepoint names used in logs and results.
const (
	Pre  = "pre"
	Post = "post"
)

// Driver orchestrates one pre/post comparison. Its capabilities are built
// from the configuration by NewDriver and may be replaced before Run; they
// are only read while running, so both timepoints can share them.
type Driver struct {
	Config     *config.Config
	Classifier *territory.Classifier
	Extractor  *territory.Extractor
	Integrator *flow.Integrator
	Normalizer *stats.Normalizer
	Thickness  *morphology.WallThickness
}

// NewDriver validates cfg and builds the default capabilities from it.
func NewDriver(cfg *config.Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	classifier, err := territory.NewSubstringClassifier(cfg.Territories...)
	if err != nil {
		return nil, err
	}
	integrator, err := flow.NewIntegrator(cfg.Physical)
	if err != nil {
		return nil, err
	}
	return &Driver{
		Config:     cfg,
		Classifier: classifier,
		Extractor:  &territory.Extractor{Tolerance: cfg.Processing.LabelTolerance},
		Integrator: integrator,
		Normalizer: stats.NewNormalizer(),
		Thickness: &morphology.WallThickness{
			Clean:   cfg.Processing.CleanSurfaces,
			Epsilon: cfg.Processing.WeldEpsilon,
			Field:   morphology.DistanceField,
		},
	}, nil
}

// Run compares folderA with its paired post folder. Any missing input,
// missing field or malformed label line aborts the run.
func (d *Driver) Run(ctx context.Context, folderA string) (*Comparison, error) {
	folderB, err := PairedFolder(folderA)
	if err != nil {
		return nil, err
	}
	for _, f := range []string{folderA, folderB} {
		if err := requireDir(f); err != nil {
			return nil, err
		}
	}
	monitoring.Logf("Comparing %s (pre) with %s (post)", folderA, folderB)

	var pre, post *TimepointResult
	if d.Config.Processing.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			pre, err = d.RunTimepoint(gctx, Pre, folderA)
			return err
		})
		g.Go(func() error {
			var err error
			post, err = d.RunTimepoint(gctx, Post, folderB)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		if pre, err = d.RunTimepoint(ctx, Pre, folderA); err != nil {
			return nil, err
		}
		if post, err = d.RunTimepoint(ctx, Post, folderB); err != nil {
			return nil, err
		}
	}

	monitoring.Logf("Merging pre and post results...")
	return &Comparison{Pre: pre, Post: post}, nil
}
