package comparison

import (
	"fmt"

	"cabgcompare/internal/models"
	"cabgcompare/pkg/flow"
	"cabgcompare/pkg/stats"
	"cabgcompare/pkg/territory"
)

// Subtended is the flow of every territory whose label name contains a tag.
type Subtended struct {
	Tag string
	// Tags lists the matched label names as "a+b+".
	Tags string
	IDs  []int
	Flow *flow.Result
	MBF  stats.Summary
}

// Subtended sums the flow of the labels of volume whose names contain tag.
// The MBF and territory fields are the configured input fields.
func (d *Driver) Subtended(volume *models.Dataset, labels []territory.Label, tag string) (*Subtended, error) {
	if tag == "" {
		return nil, fmt.Errorf("empty territory tag")
	}
	in := d.Config.Inputs
	terr, err := lookup(volume, in.TerritoryField)
	if err != nil {
		return nil, err
	}
	if _, err := lookup(volume, in.MBFField); err != nil {
		return nil, err
	}

	c, err := territory.NewSubstringClassifier(tag)
	if err != nil {
		return nil, err
	}
	part := c.Partition(labels)
	ids := part.IDs[tag]
	cells, samples, err := d.extractGroup(volume, terr, ids, in.MBFField)
	if err != nil {
		return nil, err
	}
	fr, err := d.Integrator.IntegrateFlow(cells, in.MBFField)
	if err != nil {
		return nil, err
	}
	return &Subtended{
		Tag:  tag,
		Tags: part.Tags(tag),
		IDs:  ids,
		Flow: fr,
		MBF:  stats.Describe(samples),
	}, nil
}
