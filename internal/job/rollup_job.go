package job

import (
	"context"
	"errors"
	"fmt"
	"log"

	"auratrade/internal/domain"
	"auratrade/internal/session"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/trace"
)

const DefaultRollupSchedule = "@every 30s"

type Rollupper interface {
	Rollup(ctx context.Context) (domain.PortfolioMetrics, error)
}

// RollupJob periodically merges portfolio state into a new simulated block.
// Runs while logged out are skipped.
type RollupJob struct {
	tracer   trace.Tracer
	ledger   Rollupper
	schedule string
	cron     *cron.Cron
}

func NewRollupJob(tracer trace.Tracer, ledger Rollupper, schedule string) (*RollupJob, error) {
	if schedule == "" {
		schedule = DefaultRollupSchedule
	}
	j := &RollupJob{
		tracer:   tracer,
		ledger:   ledger,
		schedule: schedule,
		cron:     cron.New(),
	}
	if _, err := j.cron.AddFunc(schedule, func() { j.runOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid rollup schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start runs the schedule until ctx is cancelled.
func (j *RollupJob) Start(ctx context.Context) {
	log.Printf("Rollup job starting (%s)...", j.schedule)
	j.cron.Start()
	<-ctx.Done()
	<-j.cron.Stop().Done()
	log.Println("Rollup job stopped")
}

func (j *RollupJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "rollup-job.run-once")
	defer span.End()

	p, err := j.ledger.Rollup(ctx)
	if errors.Is(err, session.ErrNotAuthenticated) {
		return
	}
	if err != nil {
		log.Printf("rollup error: %v", err)
		return
	}
	log.Printf("Rollup committed: block %d (%s)", p.BlockHeight, p.RollupHash)
}
