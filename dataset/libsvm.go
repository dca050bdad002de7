package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LoadLibSVM reads sparse "label idx:val ..." lines into dense samples.
// Indices are 1-based; the dimension is the largest index seen. Blank lines
// and lines starting with '#' are ignored. Sample IDs are 1-based line
// numbers.
func LoadLibSVM(r io.Reader) ([]Sample, error) {
	type entry struct {
		idx int
		val float64
	}

	var (
		samples []Sample
		sparse  [][]entry
		dim     int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		row := make([]entry, 0, len(fields)-1)
		for _, f := range fields[1:] {
			if strings.HasPrefix(f, "#") {
				break
			}
			k, v, ok := strings.Cut(f, ":")
			if !ok {
				return nil, fmt.Errorf("dataset: line %d: malformed feature %q", line, f)
			}
			idx, err := strconv.Atoi(k)
			if err != nil || idx < 1 {
				return nil, fmt.Errorf("dataset: line %d: bad index %q", line, k)
			}
			val, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: line %d: bad value %q: %w", line, v, err)
			}
			row = append(row, entry{idx: idx, val: val})
			dim = max(dim, idx)
		}

		samples = append(samples, Sample{ID: strconv.Itoa(line), Label: fields[0]})
		sparse = append(sparse, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty libsvm input", ErrNoData)
	}

	for i, row := range sparse {
		v := make([]float64, dim)
		for _, e := range row {
			v[e.idx-1] = e.val
		}
		samples[i].Vector = v
	}
	return samples, nil
}
