package docidx

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownIndexerError is returned when an indexer name is not in the closed
// catalog. The name is rejected before any storage or model work happens.
type UnknownIndexerError struct {
	Name string
}

func (e *UnknownIndexerError) Error() string {
	known := make([]string, 0, len(recipes))
	for name := range recipes {
		known = append(known, name)
	}
	sort.Strings(known)
	return fmt.Sprintf("unknown indexer %q (supported: %s)", e.Name, strings.Join(known, ", "))
}
