package comparison

import (
	"fmt"

	"cabgcompare/pkg/stats"
	"cabgcompare/pkg/territory"
)

// Comparison holds both timepoint results.
type Comparison struct {
	Pre  *TimepointResult
	Post *TimepointResult
}

// Value is one cell of the result table. A non-empty Note replaces the
// number; the zero Value renders empty and marks a column that does not
// apply to the row.
type Value struct {
	Number float64
	Note   string
	Set    bool
}

func number(x float64) Value { return Value{Number: x, Set: true} }
func note(s string) Value    { return Value{Note: s, Set: true} }

func summaryValue(s stats.Summary, name stats.Statistic) Value {
	if v, ok := s.Value(name); ok {
		return number(v)
	}
	return note(stats.NoData)
}

// Valid reports whether the value carries a number.
func (v Value) Valid() bool { return v.Set && v.Note == "" }

func (v Value) String() string {
	switch {
	case !v.Set:
		return ""
	case v.Note != "":
		return v.Note
	}
	return fmt.Sprintf("%.6g", v.Number)
}

// Row is one line of the side-by-side report.
type Row struct {
	Group     string
	Statistic string
	A, B      Value
	// IndexA and IndexB are the same statistic on the normalized MBF.
	IndexA, IndexB Value
}

// Row statistics besides the MBF distribution.
const (
	StatFlow      = "flow"
	StatAvgFlow   = "avg_flow"
	StatVolume    = "volume"
	StatCells     = "cells"
	StatReference = "p75"
	StatThickness = "thickness_"
)

// Groups returns the row groups: configured groups, NonIschemic, then Myocardium.
func (c *Comparison) Groups() []string {
	return append(append([]string(nil), c.Pre.Partition.Groups...), Myocardium)
}

func (t *TimepointResult) index(g string, name stats.Statistic) Value {
	if t.ReferenceErr != nil {
		return note(stats.Undefined)
	}
	return summaryValue(t.Groups[g].Index, name)
}

func (t *TimepointResult) flowValue(g, stat string) Value {
	fr := t.Groups[g].Flow
	if stat == StatCells {
		return number(float64(fr.CellCount))
	}
	if !fr.HasData() {
		return note(stats.NoData)
	}
	switch stat {
	case StatFlow:
		return number(fr.TotalFlow)
	case StatAvgFlow:
		avg, _ := fr.AverageFlow()
		return number(avg)
	}
	return number(fr.TotalVolume)
}

// Table flattens the comparison into report rows, keyed by group and
// statistic. Empty territories appear as "no data" and a degenerate
// normalization as "undefined".
func (c *Comparison) Table() []Row {
	var rows []Row
	for _, g := range c.Groups() {
		for _, s := range stats.Statistics {
			rows = append(rows, Row{
				Group:     g,
				Statistic: string(s),
				A:         summaryValue(c.Pre.Groups[g].MBF, s),
				B:         summaryValue(c.Post.Groups[g].MBF, s),
				IndexA:    c.Pre.index(g, s),
				IndexB:    c.Post.index(g, s),
			})
		}
		for _, s := range []string{StatFlow, StatAvgFlow, StatVolume, StatCells} {
			rows = append(rows, Row{Group: g, Statistic: s, A: c.Pre.flowValue(g, s), B: c.Post.flowValue(g, s)})
		}
	}
	rows = append(rows, Row{Group: Myocardium, Statistic: StatReference, A: c.Pre.reference(), B: c.Post.reference()})

	if c.Pre.Morphology == nil || c.Post.Morphology == nil {
		return rows
	}
	a, b := c.Pre.Morphology, c.Post.Morphology
	rows = append(rows,
		Row{Group: "Cavity", Statistic: StatVolume, A: number(a.CavityVolume), B: number(b.CavityVolume)},
		Row{Group: "Endocardium", Statistic: "area", A: number(a.EndocardialArea), B: number(b.EndocardialArea)},
	)
	for _, g := range c.Groups() {
		for _, s := range stats.Statistics {
			rows = append(rows, Row{
				Group:     g,
				Statistic: StatThickness + string(s),
				A:         summaryValue(a.Thickness[g], s),
				B:         summaryValue(b.Thickness[g], s),
			})
		}
	}
	return rows
}

func (t *TimepointResult) reference() Value {
	if t.ReferenceErr != nil {
		return note(stats.Undefined)
	}
	return number(t.Reference)
}

// Series is one box of the pre/post MBF plot.
type Series struct {
	Label  string
	Values []float64
}

// BoxSeries returns "<group>_pre" and "<group>_post" samples for every
// configured group that has pre-operative data.
func (c *Comparison) BoxSeries() []Series {
	var out []Series
	for _, g := range c.Pre.Partition.Groups {
		if g == territory.NonIschemic || len(c.Pre.Groups[g].Samples) == 0 {
			continue
		}
		out = append(out,
			Series{Label: g + "_" + Pre, Values: c.Pre.Groups[g].Samples},
			Series{Label: g + "_" + Post, Values: c.Post.Groups[g].Samples},
		)
	}
	return out
}
