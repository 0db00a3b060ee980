// Package backfill fills in segment geometry for personal-record efforts that
// were stored without it.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stravasync/stravasync/internal/activities"
	"github.com/stravasync/stravasync/internal/logging"
	"github.com/stravasync/stravasync/internal/observability"
	"github.com/stravasync/stravasync/internal/strava"
)

// SegmentSource fetches segment detail by segment id.
type SegmentSource interface {
	GetSegment(ctx context.Context, id int64) (*strava.Segment, error)
}

// Store is the slice of activities.Store the backfill reads and writes.
type Store interface {
	PRsMissingPolyline(ctx context.Context) ([]activities.SegmentEffort, error)
	SetSegmentPolyline(ctx context.Context, effortRowID uint, polyline string) error
}

type Options struct {
	// RateLimitBackoff is the pause after a 429 before retrying the same segment.
	RateLimitBackoff time.Duration
	// MaxRateLimitRetries bounds consecutive 429 retries for one row.
	MaxRateLimitRetries int
	// DryRun fetches geometry but writes nothing.
	DryRun bool
}

// Summary counts what one run did with each candidate row.
type Summary struct {
	RunID      string `json:"run_id"`
	Candidates int    `json:"candidates"`
	Filled     int    `json:"filled"`
	Empty      int    `json:"empty"`
	Failed     int    `json:"failed"`
}

type Backfiller struct {
	source SegmentSource
	store  Store
	opts   Options

	sleep func(ctx context.Context, d time.Duration) error
}

func New(source SegmentSource, store Store, opts Options) *Backfiller {
	if opts.RateLimitBackoff < 0 {
		opts.RateLimitBackoff = 0
	}
	if opts.MaxRateLimitRetries < 0 {
		opts.MaxRateLimitRetries = 0
	}
	return &Backfiller{source: source, store: store, opts: opts, sleep: sleepContext}
}

// Run walks every is_pr effort without geometry, oldest row first. A row that
// fails is logged, counted and skipped. Run itself only fails when the
// candidate query fails or ctx is cancelled.
func (b *Backfiller) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	log := logging.With().Str("run_id", summary.RunID).Str("job", "backfill").Bool("dry_run", b.opts.DryRun).Logger()

	candidates, err := b.store.PRsMissingPolyline(ctx)
	if err != nil {
		return summary, fmt.Errorf("load backfill candidates: %w", err)
	}
	summary.Candidates = len(candidates)
	log.Info().Int("candidates", summary.Candidates).Msg("backfill started")

	for _, row := range candidates {
		rowLog := log.With().Uint("effort_row", row.ID).Int64("segment_id", row.SegmentID).Str("segment_name", row.SegmentName).Logger()

		seg, err := b.fetchSegment(ctx, rowLog, row.SegmentID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				log.Warn().Err(ctxErr).Msg("backfill interrupted")
				return summary, ctxErr
			}
			rowLog.Error().Err(err).Msg("fetch segment failed, skipping")
			summary.Failed++
			observability.RecordBackfillRow("failed")
			continue
		}

		if seg.Map.Polyline == "" {
			rowLog.Info().Msg("segment has no polyline")
			summary.Empty++
			observability.RecordBackfillRow("empty")
			continue
		}

		if !b.opts.DryRun {
			if err := b.store.SetSegmentPolyline(ctx, row.ID, seg.Map.Polyline); err != nil {
				rowLog.Error().Err(err).Msg("save segment polyline failed, skipping")
				summary.Failed++
				observability.RecordBackfillRow("failed")
				continue
			}
		}
		rowLog.Info().Int("polyline_len", len(seg.Map.Polyline)).Msg("segment polyline filled")
		summary.Filled++
		observability.RecordBackfillRow("filled")
	}

	log.Info().
		Int("filled", summary.Filled).
		Int("empty", summary.Empty).
		Int("failed", summary.Failed).
		Msg("backfill complete")
	return summary, nil
}

// fetchSegment retries the same segment after a fixed pause while the source
// reports 429, up to MaxRateLimitRetries times.
func (b *Backfiller) fetchSegment(ctx context.Context, log zerolog.Logger, segmentID int64) (*strava.Segment, error) {
	for attempt := 0; ; attempt++ {
		seg, err := b.source.GetSegment(ctx, segmentID)
		if err == nil {
			return seg, nil
		}
		if !errors.Is(err, strava.ErrRateLimited) {
			return nil, err
		}
		if attempt >= b.opts.MaxRateLimitRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries: %w", attempt, err)
		}

		log.Warn().Dur("backoff", b.opts.RateLimitBackoff).Int("attempt", attempt+1).Msg("rate limited, backing off")
		if err := b.sleep(ctx, b.opts.RateLimitBackoff); err != nil {
			return nil, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
