// Package sink appends finished summary rows to tabular storage.
package sink

import "context"

// Sink accepts one ordered row of scalar cells and appends it as a new
// record. Sinks never update or delete.
type Sink interface {
	Name() string
	Append(ctx context.Context, row []any) error
}
