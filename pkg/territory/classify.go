package territory

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NonIschemic is the group of every label no configured group claims.
const NonIschemic = "NonIschemic"

// Group is a named predicate over label names.
type Group struct {
	Name  string
	Match func(labelName string) bool
}

// Substring returns a group claiming every label whose name contains name.
func Substring(name string) Group {
	return Group{Name: name, Match: func(label string) bool { return strings.Contains(label, name) }}
}

// Classifier assigns each label to the first group whose predicate matches,
// falling back to NonIschemic. Groups are evaluated in declaration order.
type Classifier struct {
	groups []Group
}

// NewClassifier builds a classifier from ordered groups.
func NewClassifier(groups ...Group) (*Classifier, error) {
	seen := make(map[string]bool)
	for _, g := range groups {
		switch {
		case g.Name == "":
			return nil, fmt.Errorf("territory group with empty name")
		case g.Name == NonIschemic:
			return nil, fmt.Errorf("territory group name %q is reserved", NonIschemic)
		case g.Match == nil:
			return nil, fmt.Errorf("territory group %q has no predicate", g.Name)
		case seen[g.Name]:
			return nil, fmt.Errorf("territory group %q declared twice", g.Name)
		}
		seen[g.Name] = true
	}
	return &Classifier{groups: groups}, nil
}

// NewSubstringClassifier builds a classifier of Substring groups.
func NewSubstringClassifier(names ...string) (*Classifier, error) {
	groups := make([]Group, len(names))
	for i, n := range names {
		groups[i] = Substring(n)
	}
	return NewClassifier(groups...)
}

// Names returns the group names in evaluation order, NonIschemic last.
func (c *Classifier) Names() []string {
	names := make([]string, 0, len(c.groups)+1)
	for _, g := range c.groups {
		names = append(names, g.Name)
	}
	return append(names, NonIschemic)
}

// Classify returns the group a label name belongs to.
func (c *Classifier) Classify(labelName string) string {
	for _, g := range c.groups {
		if g.Match(labelName) {
			return g.Name
		}
	}
	return NonIschemic
}

// Partition is the result of classifying a label table: each id belongs to
// exactly one group.
type Partition struct {
	// Groups lists every group in classifier order, NonIschemic last.
	Groups []string
	IDs    map[string][]int
	Labels map[string][]string
}

// Partition classifies every label. Groups with no labels are still present.
func (c *Classifier) Partition(labels []Label) *Partition {
	p := &Partition{
		Groups: c.Names(),
		IDs:    make(map[string][]int),
		Labels: make(map[string][]string),
	}
	for _, g := range p.Groups {
		p.IDs[g] = []int{}
		p.Labels[g] = []string{}
	}
	for _, l := range labels {
		g := c.Classify(l.Name)
		p.IDs[g] = append(p.IDs[g], l.ID)
		p.Labels[g] = append(p.Labels[g], l.Name)
	}
	return p
}

// Tags joins the label names of group as "a+b+", the form used in flow
// reports. File extensions carried by label names are dropped.
func (p *Partition) Tags(group string) string {
	var b strings.Builder
	for _, n := range p.Labels[group] {
		b.WriteString(strings.TrimSuffix(n, filepath.Ext(n)))
		b.WriteByte('+')
	}
	return b.String()
}
