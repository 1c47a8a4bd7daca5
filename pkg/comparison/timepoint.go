package comparison

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"cabgcompare/internal/models"
	"cabgcompare/internal/monitoring"
	"cabgcompare/pkg/flow"
	"cabgcompare/pkg/meshio"
	"cabgcompare/pkg/morphology"
	"cabgcompare/pkg/stats"
	"cabgcompare/pkg/territory"
)

// Myocardium is the row summarising the whole MBF map.
const Myocardium = "Myocardium"

// GroupResult holds what one territory group contributes at one timepoint.
type GroupResult struct {
	Name string
	IDs  []int
	Flow *flow.Result
	// MBF and Index summarise the raw and normalized samples.
	MBF     stats.Summary
	Index   stats.Summary
	Samples []float64
}

// Morphology holds the surface measures of one timepoint.
type Morphology struct {
	// CavityVolume is in cubic input units.
	CavityVolume    float64
	EndocardialArea float64
	// Thickness is keyed by group name, Myocardium included.
	Thickness map[string]stats.Summary
	// Surface is the written epicardium carrying thickness and territories.
	Surface string
}

// TimepointResult is the outcome of the pipeline on one folder.
type TimepointResult struct {
	Name      string
	Folder    string
	Partition *territory.Partition
	// Groups is keyed by group name, Myocardium included.
	Groups map[string]*GroupResult
	// Reference is the percentile MBF was normalized by. ReferenceErr is
	// set instead when normalization was degenerate.
	Reference    float64
	ReferenceErr error
	Morphology   *Morphology
}

// fields are the typed handles resolved once after loading.
type fields struct {
	territory *models.Field
	mbf       *models.Field
}

// lookup prefers cell data, which flow integration needs, and falls back
// to point data.
func lookup(ds *models.Dataset, name string) (*models.Field, error) {
	if f, err := ds.GetField(name, models.CellData); err == nil {
		return f, nil
	}
	return ds.GetField(name, models.PointData)
}

// RunTimepoint runs the flow, normalization and morphology stages on one
// folder. The datasets it loads are owned by this call.
func (d *Driver) RunTimepoint(ctx context.Context, name, folder string) (*TimepointResult, error) {
	in := d.Config.Inputs
	mbfPath := filepath.Join(folder, in.MBF)
	labelPath := filepath.Join(folder, in.Labels)
	if err := requireFiles(mbfPath, labelPath); err != nil {
		return nil, err
	}

	monitoring.Logf("[%s] Step 1: Loading %s...", name, mbfPath)
	volume, err := meshio.ReadFile(mbfPath)
	if err != nil {
		return nil, err
	}
	var h fields
	if h.territory, err = lookup(volume, in.TerritoryField); err != nil {
		return nil, fmt.Errorf("%s: %w", mbfPath, err)
	}
	if h.mbf, err = lookup(volume, in.MBFField); err != nil {
		return nil, fmt.Errorf("%s: %w", mbfPath, err)
	}

	monitoring.Logf("[%s] Step 2: Classifying territory labels from %s...", name, labelPath)
	labels, err := territory.ReadLabelFile(labelPath)
	if err != nil {
		return nil, err
	}
	res := &TimepointResult{
		Name:      name,
		Folder:    folder,
		Partition: d.Classifier.Partition(labels),
		Groups:    make(map[string]*GroupResult),
	}
	for _, g := range res.Partition.Groups {
		monitoring.Logf("[%s]   %s: %d labels", name, g, len(res.Partition.IDs[g]))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	monitoring.Logf("[%s] Step 3: Integrating flow per territory...", name)
	for _, g := range res.Partition.Groups {
		ids := res.Partition.IDs[g]
		cells, samples, err := d.extractGroup(volume, h.territory, ids, h.mbf.Name)
		if err != nil {
			return nil, fmt.Errorf("territory %s: %w", g, err)
		}
		fr, err := d.Integrator.IntegrateFlow(cells, h.mbf.Name)
		if err != nil {
			return nil, fmt.Errorf("territory %s: %w", g, err)
		}
		res.Groups[g] = &GroupResult{Name: g, IDs: ids, Flow: fr, MBF: stats.Describe(samples), Samples: samples}
	}
	whole, err := d.Integrator.IntegrateFlow(volume, h.mbf.Name)
	if err != nil {
		return nil, err
	}
	res.Groups[Myocardium] = &GroupResult{
		Name:    Myocardium,
		Flow:    whole,
		MBF:     stats.Describe(h.mbf.Values),
		Samples: append([]float64(nil), h.mbf.Values...),
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	monitoring.Logf("[%s] Step 4: Normalizing %s by its %vth percentile...", name, h.mbf.Name, d.Normalizer.Percentile)
	ref, index, err := d.Normalizer.Normalize(volume, h.mbf)
	switch {
	case errors.Is(err, stats.ErrDegenerate):
		monitoring.Logf("[%s] Warning: %v", name, err)
		res.ReferenceErr = err
	case err != nil:
		return nil, err
	default:
		res.Reference = ref
		for _, g := range res.Partition.Groups {
			_, samples, err := d.extractGroup(volume, h.territory, res.Partition.IDs[g], index.Name)
			if err != nil {
				return nil, fmt.Errorf("territory %s: %w", g, err)
			}
			res.Groups[g].Index = stats.Describe(samples)
		}
		res.Groups[Myocardium].Index = stats.Describe(index.Values)
	}

	if d.Config.Processing.Morphology {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.Morphology, err = d.runMorphology(name, folder, volume, h.territory, res.Partition); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// extractGroup selects the cells of the labels ids and the samples of the
// field valueName belonging to them. Samples come from the association
// valueName lives on: cell values of the selected cells, or point values
// of the labelled points.
func (d *Driver) extractGroup(volume *models.Dataset, terr *models.Field, ids []int, valueName string) (*models.Dataset, []float64, error) {
	var cells *models.Dataset
	var err error
	if terr.Association == models.CellData {
		cells, err = d.Extractor.ExtractLabels(volume, terr.Name, ids, models.CellData)
	} else {
		cells, err = d.Extractor.ExtractCellsByPointLabels(volume, terr.Name, ids)
	}
	if err != nil {
		return nil, nil, err
	}

	value, err := lookup(volume, valueName)
	if err != nil {
		return nil, nil, err
	}
	if value.Association == models.CellData {
		f, err := cells.GetField(valueName, models.CellData)
		if err != nil {
			return nil, nil, err
		}
		return cells, f.Values, nil
	}
	points := cells
	if terr.Association == models.PointData {
		if points, err = d.Extractor.ExtractLabels(volume, terr.Name, ids, models.PointData); err != nil {
			return nil, nil, err
		}
	}
	f, err := points.GetField(valueName, models.PointData)
	if err != nil {
		return nil, nil, err
	}
	return cells, f.Values, nil
}

func (d *Driver) runMorphology(name, folder string, volume *models.Dataset, terr *models.Field, part *territory.Partition) (*Morphology, error) {
	in := d.Config.Inputs
	dir := filepath.Join(folder, in.MorphologyDir)
	cavityPath := filepath.Join(dir, in.CavityCapped)
	endoPath := filepath.Join(dir, in.Endocardium)
	epiPath := filepath.Join(dir, in.Epicardium)
	if err := requireFiles(cavityPath, endoPath, epiPath); err != nil {
		return nil, err
	}

	monitoring.Logf("[%s] Step 5: Measuring cavity volume and endocardial area...", name)
	proc := d.Config.Processing
	var surfaces [3]*models.Dataset
	for i, p := range []string{cavityPath, endoPath, epiPath} {
		ds, err := meshio.ReadFile(p)
		if err != nil {
			return nil, err
		}
		surfaces[i] = ds
	}
	cavity, endo, epi := surfaces[0], surfaces[1], surfaces[2]

	cavityProps, err := morphology.ComputeMassProperties(cavity, proc.CleanSurfaces, proc.WeldEpsilon)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cavityPath, err)
	}
	endoProps, err := morphology.ComputeMassProperties(endo, proc.CleanSurfaces, proc.WeldEpsilon)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endoPath, err)
	}
	m := &Morphology{
		CavityVolume:    cavityProps.Volume,
		EndocardialArea: endoProps.Area,
		Thickness:       make(map[string]stats.Summary),
	}
	monitoring.Logf("[%s]   cavity volume %.6g, endocardial area %.6g", name, m.CavityVolume, m.EndocardialArea)

	monitoring.Logf("[%s] Step 6: Computing wall thickness and projecting territories...", name)
	surface, dist, err := d.Thickness.Compute(endo, epi)
	if err != nil {
		return nil, err
	}
	projector := &territory.Projector{Field: terr.Name}
	if _, err := projector.Project(surface, volume); err != nil {
		return nil, err
	}
	for _, g := range part.Groups {
		sub, err := d.Extractor.ExtractLabels(surface, terr.Name, part.IDs[g], models.PointData)
		if err != nil {
			return nil, err
		}
		f, err := sub.GetField(dist.Name, models.PointData)
		if err != nil {
			return nil, err
		}
		m.Thickness[g] = stats.Describe(f.Values)
	}
	m.Thickness[Myocardium] = stats.Describe(dist.Values)

	m.Surface = filepath.Join(dir, strings.TrimSuffix(in.Epicardium, filepath.Ext(in.Epicardium))+"_WallThickness.vtp")
	if err := meshio.WriteFile(m.Surface, surface, &meshio.Options{Encoding: meshio.Binary, Compress: true}); err != nil {
		return nil, err
	}
	monitoring.Logf("[%s]   wrote %s", name, m.Surface)
	return m, nil
}
