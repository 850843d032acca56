package scoring

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// predictionColumns are header names accepted for the prediction column, in
// order of preference.
var predictionColumns = []string{"pred", "prediction", "predictions", "label", "y_pred"}

// ReadPredictions reads integer class predictions from a CSV with a header
// row. The column is picked by name, or the only column is used.
func ReadPredictions(r io.Reader) ([]int64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoPredictions
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPredictions, err)
	}

	col := -1
	if len(header) == 1 {
		col = 0
	} else {
		for _, name := range predictionColumns {
			if i := slices.IndexFunc(header, func(h string) bool {
				return strings.EqualFold(strings.TrimSpace(h), name)
			}); i >= 0 {
				col = i
				break
			}
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: no prediction column in header %v", ErrBadPredictions, header)
	}

	var out []int64
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadPredictions, err)
		}
		v, err := parseLabel(row[col])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadPredictions, line, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, ErrNoPredictions
	}
	return out, nil
}

// parseLabel accepts integers and integral floats ("3.0") as written by
// dataframe exports.
func parseLabel(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("non-integral label %q", s)
	}
	return int64(f), nil
}
