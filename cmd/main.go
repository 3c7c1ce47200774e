package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/asaskevich/EventBus"
	"github.com/jobdeck/jobdeck/internal/clients/gemini"
	"github.com/jobdeck/jobdeck/internal/clients/gmail"
	"github.com/jobdeck/jobdeck/internal/clients/hh"
	"github.com/jobdeck/jobdeck/internal/clients/web"
	"github.com/jobdeck/jobdeck/internal/config"
	"github.com/jobdeck/jobdeck/internal/logger"
	"github.com/jobdeck/jobdeck/internal/metrics"
	"github.com/jobdeck/jobdeck/internal/repositories"
	"github.com/jobdeck/jobdeck/internal/services"
	log "github.com/sirupsen/logrus"
)

type app struct {
	Profiles *repositories.Profiles
	Jobs     *repositories.Jobs
	Search   *services.SearchOrchestrator
	Ranking  *services.RankingEngine
	Pipeline *services.Pipeline
	Sweep    *services.StatusSweep
	Outreach *services.Outreach
}

func buildApp(ctx context.Context, cfg *config.Config, dbContext *repositories.DbContext,
	bus EventBus.Bus) (*app, error) {

	aiClient := gemini.NewClient(gemini.Model(cfg.App.AiModel))
	aiClient.SetMinuteRateLimit(cfg.App.AiMaxRequestsPerMinute)
	aiClient.SetDayRateLimit(cfg.App.AiMaxRequestsPerDay)

	boardClient := hh.NewClient()
	boardClient.SetRateLimit(cfg.App.BoardMaxRequestsPerSecond)

	mailClient, err := gmail.NewClient(ctx, cfg.Mail.Token)
	if err != nil {
		return nil, err
	}

	fetcher := web.NewFetcher()

	profiles := repositories.NewProfilesRepository(dbContext.DB)
	jobs := repositories.NewJobsRepository(dbContext.DB, bus)

	pipeline := services.NewPipeline(jobs, bus)
	classifier := services.NewReplyClassifier(aiClient)

	return &app{
		Profiles: profiles,
		Jobs:     jobs,
		Search: services.NewSearchOrchestrator(bus, jobs,
			services.NewScrapeAdapter(fetcher, aiClient),
			services.NewAPIAdapter(boardClient)),
		Ranking:  services.NewRankingEngine(aiClient),
		Pipeline: pipeline,
		Sweep: services.NewStatusSweep(bus, jobs, pipeline, fetcher, aiClient,
			cfg.App.SweepCacheTTL),
		Outreach: services.NewOutreach(aiClient, mailClient, jobs, pipeline,
			classifier, cfg.Mail.FromAddress),
	}, nil
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(cfg.App.MetricsPort)

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	bus := EventBus.New()

	application, err := buildApp(ctx, cfg, dbContext, bus)
	if err != nil {
		log.Fatalf("can't build services: %v", err)
	}

	if cfg.App.SweepSchedule != "" {
		scheduler, err := services.NewScheduler(application.Sweep, application.Outreach,
			application.Profiles, cfg.App.UserID, cfg.App.SweepSchedule, cfg.App.InboxScanLimit)
		if err != nil {
			log.Fatalf("can't create maintenance scheduler: %v", err)
		}
		defer scheduler.Stop()
	}

	<-ctx.Done()

	log.Info("Shutting down services...")
	log.Info("Services stopped.")
}
