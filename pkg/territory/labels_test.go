package territory

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseLabels verifies parsing of a label file with a header line
func TestParseLabels(t *testing.T) {
	in := "ID Name\n1 post_LAD_apex\n\n2 post_LCx_base extra cols\n3 unknown\n"
	labels, err := ParseLabels(strings.NewReader(in))
	require.NoError(t, err)
	want := []Label{{1, "post_LAD_apex"}, {2, "post_LCx_base"}, {3, "unknown"}}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLabelsWithoutHeader(t *testing.T) {
	labels, err := ParseLabels(strings.NewReader("7 PDA\n"))
	require.NoError(t, err)
	assert.Equal(t, []Label{{7, "PDA"}}, labels)
}

// TestParseLabelsMalformed verifies line numbers in label parse errors
func TestParseLabelsMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{"missing name", "1 LAD\n2\n", 2},
		{"bad id after header", "header\n1 LAD\nx LCx\n", 3},
		{"bad id after data", "1 LAD\nfoo LCx\n", 2},
		{"duplicate id", "1 LAD\n1 LCx\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLabels(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedLabel))
			var le *LabelLineError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.line, le.Line)
		})
	}
}

func TestReadLabelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.dat")
	require.NoError(t, os.WriteFile(path, []byte("1 LAD\n"), 0644))
	labels, err := ReadLabelFile(path)
	require.NoError(t, err)
	assert.Len(t, labels, 1)

	_, err = ReadLabelFile(filepath.Join(t.TempDir(), "none.dat"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

// TestClassifierScenario verifies grouping of typical coronary labels
func TestClassifierScenario(t *testing.T) {
	labels, err := ParseLabels(strings.NewReader("1 post_LAD_apex\n2 post_LCx_base\n3 unknown\n"))
	require.NoError(t, err)
	c, err := NewSubstringClassifier("post_LAD", "post_LCx")
	require.NoError(t, err)

	p := c.Partition(labels)
	assert.Equal(t, []string{"post_LAD", "post_LCx", NonIschemic}, p.Groups)
	assert.Equal(t, []int{1}, p.IDs["post_LAD"])
	assert.Equal(t, []int{2}, p.IDs["post_LCx"])
	assert.Equal(t, []int{3}, p.IDs[NonIschemic])
}

// TestClassifierFirstMatchWins verifies that a label matching two groups goes to the first
func TestClassifierFirstMatchWins(t *testing.T) {
	c, err := NewSubstringClassifier("LAD", "Diag1", "AD")
	require.NoError(t, err)
	assert.Equal(t, "LAD", c.Classify("LAD_Diag1"))
	assert.Equal(t, "Diag1", c.Classify("Diag1_apex"))
	assert.Equal(t, "AD", c.Classify("PAD"))
	assert.Equal(t, NonIschemic, c.Classify("PL"))
}

// TestPartitionIsAPartition verifies that every label lands in exactly one group
func TestPartitionIsAPartition(t *testing.T) {
	names := []string{"LAD_1", "LAD_2", "LCx", "Diag1_LAD", "PDA", "PL", "remote", "Intermedius", "Diag2"}
	var labels []Label
	for i, n := range names {
		labels = append(labels, Label{ID: i + 10, Name: n})
	}
	c, err := NewSubstringClassifier("LAD", "LCx", "Intermedius", "Diag1", "Diag2", "PDA", "PL")
	require.NoError(t, err)
	p := c.Partition(labels)

	var all []int
	for _, g := range p.Groups {
		all = append(all, p.IDs[g]...)
	}
	sort.Ints(all)
	var want []int
	for _, l := range labels {
		want = append(want, l.ID)
	}
	assert.Equal(t, want, all, "every id appears in exactly one group")
	assert.Empty(t, p.IDs["Diag1"], "Diag1_LAD is claimed by LAD first")
	assert.Equal(t, []int{16}, p.IDs[NonIschemic])
}

func TestNewClassifierRejectsBadGroups(t *testing.T) {
	_, err := NewSubstringClassifier("LAD", "LAD")
	assert.Error(t, err)
	_, err = NewSubstringClassifier("")
	assert.Error(t, err)
	_, err = NewSubstringClassifier(NonIschemic)
	assert.Error(t, err)
	_, err = NewClassifier(Group{Name: "x"})
	assert.Error(t, err)
}

func TestPartitionTags(t *testing.T) {
	c, err := NewSubstringClassifier("LAD")
	require.NoError(t, err)
	p := c.Partition([]Label{{1, "LAD_a.vtu"}, {2, "LAD_b"}})
	assert.Equal(t, "LAD_a+LAD_b+", p.Tags("LAD"))
	assert.Equal(t, "", p.Tags(NonIschemic))
}
