package contribution

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"go.uber.org/zap"
)

var (
	// ErrArchiveDisabled is returned when no object storage is configured
	ErrArchiveDisabled = errors.New("report: archive storage is not configured")
	// ErrArchiveUnavailable wraps object storage failures
	ErrArchiveUnavailable = errors.New("report: archive storage unavailable")
)

// GroupSummary is the dashboard view of a group
type GroupSummary struct {
	GroupID     uuid.UUID                          `json:"group_id"`
	Currency    string                             `json:"currency"`
	Members     []contribution.ContributionSummary `json:"members"`
	Stats       contribution.GroupStats            `json:"stats"`
	GeneratedAt time.Time                          `json:"generated_at"`
}

// GroupReport is the exportable per-member report of a group
type GroupReport struct {
	GroupID     uuid.UUID
	Currency    string
	Rows        []contribution.MemberReportRow
	Stats       contribution.GroupStats
	GeneratedAt time.Time
}

// ArchiveResult locates an archived report
type ArchiveResult struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

// ReportingAggregator computes the read model of a group's contributions.
// It never writes to the ledger.
type ReportingAggregator struct {
	members contribution.MemberRepository
	store   contribution.LedgerStore
	cache   SummaryCache
	archive ReportArchive
	metrics Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// ReportingAggregatorConfig holds the dependencies of ReportingAggregator.
// Archive may be nil.
type ReportingAggregatorConfig struct {
	Members contribution.MemberRepository
	Store   contribution.LedgerStore
	Cache   SummaryCache
	Archive ReportArchive
	Metrics Metrics
	Logger  *zap.Logger
	Clock   func() time.Time
}

// NewReportingAggregator creates a ReportingAggregator
func NewReportingAggregator(cfg ReportingAggregatorConfig) *ReportingAggregator {
	a := &ReportingAggregator{
		members: cfg.Members,
		store:   cfg.Store,
		cache:   cfg.Cache,
		archive: cfg.Archive,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		now:     cfg.Clock,
	}
	if a.cache == nil {
		a.cache = nopCache{}
	}
	if a.metrics == nil {
		a.metrics = nopMetrics{}
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// SummaryFor returns per-member totals ordered by approved total descending,
// ties broken by member id. Results are served from the cache when the
// group's generation has not moved since they were computed.
func (a *ReportingAggregator) SummaryFor(ctx context.Context, groupID uuid.UUID) (*GroupSummary, error) {
	generation, err := a.cache.Generation(ctx, groupID)
	cacheUsable := err == nil
	if err != nil {
		a.logger.Warn("Summary cache unavailable", zap.String("group_id", groupID.String()), zap.Error(err))
	}

	if cacheUsable {
		if payload, ok, err := a.cache.Get(ctx, groupID, generation); err != nil {
			a.logger.Warn("Summary cache read failed", zap.String("group_id", groupID.String()), zap.Error(err))
		} else if ok {
			var cached GroupSummary
			if err := json.Unmarshal(payload, &cached); err == nil {
				return &cached, nil
			}
			a.logger.Warn("Discarding undecodable summary cache entry", zap.String("group_id", groupID.String()))
		}
	}

	group, projection, err := a.project(ctx, groupID)
	if err != nil {
		return nil, err
	}
	summary := &GroupSummary{
		GroupID:     groupID,
		Currency:    group.Currency,
		Members:     projection.Summaries(),
		Stats:       projection.Stats,
		GeneratedAt: a.now().UTC(),
	}

	if cacheUsable {
		if payload, err := json.Marshal(summary); err == nil {
			if err := a.cache.Set(ctx, groupID, generation, payload); err != nil {
				a.logger.Warn("Summary cache write failed", zap.String("group_id", groupID.String()), zap.Error(err))
			}
		}
	}
	return summary, nil
}

// DetailFor returns the per-member report rows with pending, approved and
// rejected subtotals. It always reads the store.
func (a *ReportingAggregator) DetailFor(ctx context.Context, groupID uuid.UUID) (*GroupReport, error) {
	group, projection, err := a.project(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &GroupReport{
		GroupID:     groupID,
		Currency:    group.Currency,
		Rows:        projection.Rows,
		Stats:       projection.Stats,
		GeneratedAt: a.now().UTC(),
	}, nil
}

// ArchiveReport renders the group's report as CSV, stores it, and returns a
// time-limited download link. Only managers may archive.
func (a *ReportingAggregator) ArchiveReport(ctx context.Context, groupID, callerUserID uuid.UUID) (*ArchiveResult, error) {
	if a.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if _, err := NewMembership(a.members).RequireManager(ctx, groupID, callerUserID); err != nil {
		return nil, err
	}

	report, err := a.DetailFor(ctx, groupID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, report); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reports/%s/%s.csv", groupID, report.GeneratedAt.Format("20060102T150405Z"))
	if err := a.archive.Upload(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		a.logger.Error("Failed to archive report", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}
	url, expiresAt, err := a.archive.DownloadURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}

	a.logger.Info("Report archived",
		zap.String("group_id", groupID.String()),
		zap.String("key", key),
		zap.Int("rows", len(report.Rows)))
	return &ArchiveResult{Key: key, URL: url, ExpiresAt: expiresAt}, nil
}

func (a *ReportingAggregator) project(ctx context.Context, groupID uuid.UUID) (*contribution.Group, *contribution.Projection, error) {
	group, err := a.members.FindGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, contribution.ErrGroupNotFound
	}
	members, err := a.members.ListMembers(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	records, balance, err := a.store.LoadProjectionInputs(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	projection, issues := contribution.Project(members, records)
	if issue := contribution.CheckRunningTotal(balance, projection.Stats); issue != nil && len(issues) == 0 {
		issues = append(issues, *issue)
	}
	if len(issues) > 0 {
		for _, issue := range issues {
			a.metrics.IntegrityViolation(string(issue.Kind))
			a.logger.Error("Contribution ledger integrity violation",
				zap.String("group_id", groupID.String()),
				zap.String("kind", string(issue.Kind)),
				zap.Stringer("issue", issue))
		}
		return nil, nil, fmt.Errorf("%w: group %s: %s", contribution.ErrIntegrityViolation, groupID, issues[0])
	}
	return group, projection, nil
}

var csvHeader = []string{
	"member_id", "display_name", "email", "role",
	"approved_total", "approved_count",
	"pending_total", "pending_count",
	"rejected_total", "rejected_count",
	"last_approved_at", "percent_of_group",
}

// WriteCSV writes the report rows, one line per member, amounts with two
// decimal places.
func WriteCSV(w io.Writer, report *GroupReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range report.Rows {
		lastApproved := ""
		if row.LastApprovedAt != nil {
			lastApproved = row.LastApprovedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			row.MemberID.String(),
			row.DisplayName,
			row.Email,
			row.Role.String(),
			row.ApprovedTotal.StringFixed(2),
			strconv.Itoa(row.ApprovedCount),
			row.PendingTotal.StringFixed(2),
			strconv.Itoa(row.PendingCount),
			row.RejectedTotal.StringFixed(2),
			strconv.Itoa(row.RejectedCount),
			lastApproved,
			row.PercentOfGroup.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
