// Package territory turns the coronary territory label map of an MBF
// dataset into named groups, extracts the elements of a territory and
// carries labels over to independently meshed surfaces.
package territory

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedLabel is wrapped by every *LabelLineError.
var ErrMalformedLabel = errors.New("malformed label line")

// LabelLineError reports a bad record of a label file.
type LabelLineError struct {
	Line   int
	Text   string
	Reason string
}

func (e *LabelLineError) Error() string {
	return fmt.Sprintf("label line %d %q: %s", e.Line, e.Text, e.Reason)
}

func (e *LabelLineError) Unwrap() error { return ErrMalformedLabel }

// Label is one record of a label file.
type Label struct {
	ID   int
	Name string
}

// ParseLabels reads records of the form "<id> <name> ...". Blank lines are
// ignored. The first non-blank line is treated as a header and skipped when
// its first column is not an integer; anywhere else that is an error, as is
// a line with fewer than two columns or a repeated id.
func ParseLabels(r io.Reader) ([]Label, error) {
	var labels []Label
	seen := make(map[int]int)
	first := true

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := sc.Text()
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			if first {
				first = false
				continue
			}
			return nil, &LabelLineError{Line: lineNo, Text: text, Reason: "territory id is not an integer"}
		}
		first = false
		if len(fields) < 2 {
			return nil, &LabelLineError{Line: lineNo, Text: text, Reason: "missing territory name"}
		}
		if prev, dup := seen[id]; dup {
			return nil, &LabelLineError{Line: lineNo, Text: text, Reason: fmt.Sprintf("territory id %d already declared on line %d", id, prev)}
		}
		seen[id] = lineNo
		labels = append(labels, Label{ID: id, Name: fields[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}
	return labels, nil
}

// ReadLabelFile parses the label file at path.
func ReadLabelFile(path string) ([]Label, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	labels, err := ParseLabels(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return labels, nil
}
