package port

import (
	"context"

	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
)

// BatchReport is the artifact of one pipeline run: "{source}:{city}" to
// the listings collected for that pair.
type BatchReport map[string][]domain.NormalizedListing

// BatchReportPort persists a run's report to a timestamped artifact and
// returns its location.
type BatchReportPort interface {
	Write(ctx context.Context, report BatchReport) (string, error)
}
