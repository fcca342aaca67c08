package books

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
)

// Query evaluates a JSONPath expression over the snapshot, as in
// "$.data.sales[?(@.balance > 0)].id".
func Query(s Snapshot, path string) (any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("could not encode snapshot: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("could not decode snapshot: %w", err)
	}
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, invalid("path", "%q: %v", path, err)
	}
	return v, nil
}
