package extern

import (
	"bytes"
	"encoding/json"
	"fmt"

	"xtags/internal/errors"
)

// wireTag mirrors one object of the parser reply. Pointer fields let
// absent keys be told apart from zero values.
type wireTag struct {
	Name *string `json:"name"`
	Kind *string `json:"kind"`
	Line *int    `json:"line"`
}

type record struct {
	name string
	kind string
	line int
}

// decodeRecords validates and flattens one reply. Any shape other
// than an array of objects carrying string name, string kind and
// integer line is fatal. Unknown keys are ignored.
func decodeRecords(raw json.RawMessage) ([]record, error) {
	// json.Unmarshal accepts a bare null for a slice, but the
	// protocol demands an array.
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.NewXtagsError(errors.ResponseInvalid,
			"reply is not a JSON array", nil)
	}

	var wire []wireTag
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errors.NewXtagsError(errors.ResponseInvalid,
			"cannot parse tag objects", err)
	}

	records := make([]record, len(wire))
	for i, w := range wire {
		if w.Name == nil || w.Kind == nil || w.Line == nil {
			return nil, errors.NewXtagsError(errors.ResponseInvalid,
				fmt.Sprintf("tag object %d is missing name, kind or line", i), nil)
		}
		records[i] = record{name: *w.Name, kind: *w.Kind, line: *w.Line}
	}
	return records, nil
}
