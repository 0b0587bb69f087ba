package collection

import (
	"context"
	"time"

	"github.com/sipb/hydrant/collection/services"
	"github.com/sipb/hydrant/data"
	log "github.com/sirupsen/logrus"
)

const UPDATE_INTERVAL = time.Hour

// Scheduler reruns the full update on an interval the way the hourly cron
// job did.
type Scheduler struct {
	orch   *Orchestrator
	config data.Config
	// builds the services for a run, a new client per run keeps the limiter fresh
	serviceEntries func() []Service
	interval       time.Duration
}

func NewScheduler(orch *Orchestrator, config data.Config, serviceEntries func() []Service) *Scheduler {
	return &Scheduler{
		orch:           orch,
		config:         config,
		serviceEntries: serviceEntries,
		interval:       UPDATE_INTERVAL,
	}
}

func (s *Scheduler) SetInterval(interval time.Duration) {
	s.interval = interval
}

// Update collects fireroad for the pre-semester, every source for the
// semester and then packages the semester.
func (s *Scheduler) Update(ctx context.Context, logger *log.Entry) error {
	latest, err := data.ReadLatestTerm(s.config.PublicDir)
	if err != nil {
		return err
	}
	serviceEntries := s.serviceEntries()

	preSemester, err := services.NewTarget(latest, services.PreSemester)
	if err != nil {
		return err
	}
	fireroadService, err := ServiceByName(serviceEntries, "fireroad")
	if err != nil {
		return err
	}
	if _, err := s.orch.Run(ctx, preSemester, fireroadService); err != nil {
		logger.Warnf("Pre-semester collection had failures: %v", err)
	}

	semester, err := services.NewTarget(latest, services.Semester)
	if err != nil {
		return err
	}
	if _, err := s.orch.Run(ctx, semester, serviceEntries...); err != nil {
		logger.Warnf("Semester collection had failures: %v", err)
	}

	_, err = Publish(
		logger,
		data.NewStore(s.config.DataDir),
		data.NewStore(s.config.PublicDir),
		semester,
		s.config.OverridesDir,
	)
	return err
}

// Run blocks updating once right away and then every interval until ctx is
// done.
func (s *Scheduler) Run(ctx context.Context, logger *log.Entry) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := s.Update(ctx, logger); err != nil {
			logger.Errorf("Update failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
