// Package contribution implements the contribution workflow: submission,
// manager approval, and the reporting read model.
package contribution

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SummaryCache stores rendered group summaries under a per-group generation.
// Bump invalidates every entry of the group by moving to a new generation.
type SummaryCache interface {
	Generation(ctx context.Context, groupID uuid.UUID) (int64, error)
	Get(ctx context.Context, groupID uuid.UUID, generation int64) ([]byte, bool, error)
	Set(ctx context.Context, groupID uuid.UUID, generation int64, payload []byte) error
	Bump(ctx context.Context, groupID uuid.UUID) error
}

// ReportArchive is object storage for exported reports
type ReportArchive interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)
}

// Metrics receives workflow counters
type Metrics interface {
	ContributionSubmitted(method string)
	ApprovalResolved(outcome string)
	IntegrityViolation(kind string)
}

type nopMetrics struct{}

func (nopMetrics) ContributionSubmitted(string) {}
func (nopMetrics) ApprovalResolved(string)      {}
func (nopMetrics) IntegrityViolation(string)    {}

type nopCache struct{}

func (nopCache) Generation(context.Context, uuid.UUID) (int64, error) { return 0, nil }
func (nopCache) Get(context.Context, uuid.UUID, int64) ([]byte, bool, error) {
	return nil, false, nil
}
func (nopCache) Set(context.Context, uuid.UUID, int64, []byte) error { return nil }
func (nopCache) Bump(context.Context, uuid.UUID) error               { return nil }
