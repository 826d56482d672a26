package services

import (
	"context"
	"fmt"
	"time"

	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/config"
	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/core/routing"
	"campus-aid-buddy/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const cronJobTimeout = 2 * time.Minute

// TokenCleaner deletes expired refresh tokens
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// NoticeExpirer deactivates notices past their expiry
type NoticeExpirer interface {
	DeactivateExpired(ctx context.Context) (int64, error)
}

// OverdueTicket is an open ticket past its category's escalation window
type OverdueTicket struct {
	TicketID     string
	TicketNumber string
	Category     domain.TicketCategory
	AssignedRole domain.Role
	EscalateTo   domain.Role
	Age          time.Duration
}

// CronService runs the scheduled housekeeping jobs
type CronService struct {
	cron    *cron.Cron
	cfg     config.CronConfig
	tokens  TokenCleaner
	notices NoticeExpirer
	tickets repositories.TicketRepository
	log     zerolog.Logger
	now     Clock
}

// NewCronService creates the scheduler. Jobs are registered by Start.
func NewCronService(
	cfg config.CronConfig,
	tokens TokenCleaner,
	notices NoticeExpirer,
	tickets repositories.TicketRepository,
	l zerolog.Logger,
) *CronService {
	cl := l.With().Str("component", "cron").Logger()
	return &CronService{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(&cl)))),
		cfg:     cfg,
		tokens:  tokens,
		notices: notices,
		tickets: tickets,
		log:     cl,
		now:     systemClock,
	}
}

// Start registers every job and starts the scheduler. An empty schedule
// disables its job.
func (s *CronService) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"token_cleanup", s.cfg.TokenCleanup, s.cleanupTokens},
		{"notice_expiry", s.cfg.NoticeExpiry, s.expireNotices},
		{"overdue_sweep", s.cfg.OverdueSweep, s.sweepOverdue},
	}

	for _, j := range jobs {
		if j.spec == "" {
			s.log.Info().Str("job", j.name).Msg("job disabled")
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, func() { s.runJob(j.name, j.run) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", j.name, j.spec, err)
		}
		s.log.Info().Str("job", j.name).Str("schedule", j.spec).Msg("job scheduled")
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("cron stopped")
}

func (s *CronService) runJob(name string, run func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), cronJobTimeout)
	defer cancel()

	start := time.Now()
	if err := run(ctx); err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("job failed")
		return
	}
	s.log.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("job finished")
}

func (s *CronService) cleanupTokens(ctx context.Context) error {
	n, err := s.tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("expired refresh tokens removed")
	}
	return nil
}

func (s *CronService) expireNotices(ctx context.Context) error {
	n, err := s.notices.DeactivateExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info().Int64("deactivated", n).Msg("expired notices deactivated")
	}
	return nil
}

func (s *CronService) sweepOverdue(ctx context.Context) error {
	overdue, err := s.OverdueTickets(ctx)
	if err != nil {
		return err
	}
	metrics.OverdueTickets.Set(float64(len(overdue)))
	for _, o := range overdue {
		s.log.Warn().
			Str("ticket_number", o.TicketNumber).
			Str("category", string(o.Category)).
			Str("assigned_role", string(o.AssignedRole)).
			Str("escalate_to", string(o.EscalateTo)).
			Dur("age", o.Age).
			Msg("ticket overdue")
	}
	return nil
}

// OverdueTickets lists open tickets past their escalation window with the
// role each should escalate to. Ticket status is left untouched.
func (s *CronService) OverdueTickets(ctx context.Context) ([]OverdueTicket, error) {
	now := s.now()
	open, err := s.tickets.ListOpenCreatedBefore(ctx, now)
	if err != nil {
		return nil, err
	}

	var out []OverdueTicket
	for _, t := range open {
		if !routing.ShouldEscalate(t.CreatedAt, t.Category, now) {
			continue
		}
		out = append(out, OverdueTicket{
			TicketID:     t.ID,
			TicketNumber: t.TicketNumber,
			Category:     t.Category,
			AssignedRole: t.AssignedRole,
			EscalateTo:   routing.EscalationPath(t.AssignedRole),
			Age:          now.Sub(t.CreatedAt),
		})
	}
	return out, nil
}
