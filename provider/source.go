package provider

import (
	"context"
	"io"
)

// Source is an interface for getting the raw feed from an external source. Source takes care of the
// transport and gives back the document as a stream
//
//go:generate mockgen -source source.go -destination mock_source.go -package provider
type Source interface {
	// Open returns the feed document, the caller closes it once parsing completes or fails
	Open(ctx context.Context) (io.ReadCloser, error)
	// GetExchangeable declares to give a list of currencies the feed publishes
	GetExchangeable() []string
}
