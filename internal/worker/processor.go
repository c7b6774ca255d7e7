// Package worker schedules the background work: the periodic matching
// backstop and the hourly midnight-circle sweep.
package worker

import (
	"context"
	"time"

	"circle-backend/internal/matching"
	"circle-backend/internal/midnight"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	taskMatchingPass = "matching:pass"
	taskSweep        = "circles:sweep"
)

// Processor drives the matching engine and the expiry sweeper on their
// intervals. With Redis available the ticks go through asynq queues; without
// it the handlers are invoked in-process so the sweep (which only needs
// Postgres) keeps running.
type Processor struct {
	engine  *matching.Engine
	sweeper *midnight.Sweeper

	passInterval  time.Duration
	sweepInterval time.Duration

	server *asynq.Server
	client *asynq.Client
	log    zerolog.Logger
}

func NewProcessor(engine *matching.Engine, sweeper *midnight.Sweeper, redisURL string, passInterval, sweepInterval time.Duration) *Processor {
	p := &Processor{
		engine:        engine,
		sweeper:       sweeper,
		passInterval:  passInterval,
		sweepInterval: sweepInterval,
		log:           log.With().Str("component", "worker").Logger(),
	}

	if redisURL != "" {
		opt, err := asynq.ParseRedisURI(redisURL)
		if err != nil {
			p.log.Warn().Err(err).Msg("invalid redis URL, background tasks run in-process")
			return p
		}

		p.server = asynq.NewServer(opt, asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"matching": 6,
				"cleanup":  1,
			},
			StrictPriority: true,
		})
		p.client = asynq.NewClient(opt)
	}

	return p
}

func (p *Processor) Start(ctx context.Context) {
	if p.server != nil {
		mux := asynq.NewServeMux()
		mux.HandleFunc(taskMatchingPass, p.handleMatchingTask)
		mux.HandleFunc(taskSweep, p.handleSweepTask)

		go func() {
			if err := p.server.Run(mux); err != nil {
				p.log.Error().Err(err).Msg("asynq server stopped")
			}
		}()
	}

	// Sweep once at startup so circles that expired while the service was
	// down do not linger until the first interval elapses.
	p.triggerSweep(ctx)

	go p.runTicker(ctx, p.passInterval, p.triggerMatchingPass)
	go p.runTicker(ctx, p.sweepInterval, p.triggerSweep)

	p.log.Info().
		Dur("matching_interval", p.passInterval).
		Dur("sweep_interval", p.sweepInterval).
		Bool("asynq", p.server != nil).
		Msg("background processor started")
}

func (p *Processor) Stop() {
	if p.server != nil {
		p.server.Shutdown()
	}
	if p.client != nil {
		p.client.Close()
	}
}

func (p *Processor) handleMatchingTask(ctx context.Context, _ *asynq.Task) error {
	p.engine.RunMatchingPass(ctx)
	return nil
}

func (p *Processor) handleSweepTask(ctx context.Context, _ *asynq.Task) error {
	p.sweeper.Sweep(ctx)
	return nil
}

func (p *Processor) runTicker(ctx context.Context, interval time.Duration, trigger func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			trigger(ctx)
		}
	}
}

func (p *Processor) triggerMatchingPass(ctx context.Context) {
	if p.client != nil {
		task := asynq.NewTask(taskMatchingPass, nil)
		if _, err := p.client.Enqueue(task, asynq.Queue("matching")); err != nil {
			p.log.Warn().Err(err).Msg("failed to enqueue matching task")
		}
		return
	}
	p.engine.RunMatchingPass(ctx)
}

func (p *Processor) triggerSweep(ctx context.Context) {
	if p.client != nil {
		task := asynq.NewTask(taskSweep, nil)
		if _, err := p.client.Enqueue(task, asynq.Queue("cleanup")); err != nil {
			p.log.Warn().Err(err).Msg("failed to enqueue sweep task")
		}
		return
	}
	p.sweeper.Sweep(ctx)
}
