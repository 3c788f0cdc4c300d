// Package decoder converts raw log payloads into transaction records.
package decoder

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/jnst/fraud-scoring-pipeline/internal/model"
)

// Decode parses a JSON payload and extracts the features in schema order.
// Fields outside the schema are ignored.
func Decode(raw []byte, position int64) (*model.TransactionRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", model.ErrDecode, err)
	}

	record := &model.TransactionRecord{Position: position}

	for i, name := range model.FeatureNames {
		value, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", model.ErrDecode, name)
		}

		var f float64
		if string(value) == "null" {
			return nil, fmt.Errorf("%w: field %q is null", model.ErrDecode, name)
		}
		if err := json.Unmarshal(value, &f); err != nil {
			return nil, fmt.Errorf("%w: field %q is not a number", model.ErrDecode, name)
		}

		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: field %q is not finite", model.ErrDecode, name)
		}

		record.Features[i] = f
	}

	return record, nil
}
