package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Impersonality/daily-stock-analysis/internal/clients/analyzer"
	"github.com/Impersonality/daily-stock-analysis/internal/config"
	internal_http "github.com/Impersonality/daily-stock-analysis/internal/http"
	"github.com/Impersonality/daily-stock-analysis/internal/log"
	"github.com/Impersonality/daily-stock-analysis/internal/scheduler"
	"github.com/Impersonality/daily-stock-analysis/pkg/models"
	"github.com/Impersonality/daily-stock-analysis/pkg/service"
	"github.com/Impersonality/daily-stock-analysis/pkg/store"
)

func SetupCLI(rootCmd *cobra.Command) {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the analysis web service",
		Run: func(cmd *cobra.Command, args []string) {
			serve()
		},
	}

	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Print recent analysis tasks from the persisted store",
		Run: func(cmd *cobra.Command, args []string) {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving limit flag: %v", err)
				os.Exit(1)
			}
			printTasks(limit)
		},
	}
	tasksCmd.Flags().Int("limit", service.DefaultTaskListLimit, "maximum tasks to print")

	reviewsCmd := &cobra.Command{
		Use:   "reviews",
		Short: "Print cached daily market reviews",
		Run: func(cmd *cobra.Command, args []string) {
			printReviews()
		},
	}

	rootCmd.AddCommand(serveCmd, tasksCmd, reviewsCmd)
}

func serve() {
	logger := log.GetLogger()
	cfg := config.Load()

	pool := service.NewWorkerPool(cfg.QueueSize, logger)
	pool.Start(cfg.MaxWorkers)

	client := analyzer.New(cfg.AnalyzerURL)
	analysisSvc := service.NewAnalysisService(
		service.NewTaskTable(store.NewFileStore[models.TaskRecord](cfg.TaskFile()), logger),
		pool, client, logger,
	)
	marketSvc := service.NewMarketService(
		service.NewReviewTable(store.NewFileStore[models.ReportRecord](cfg.ReviewFile()), logger),
		client, logger,
	)

	var sched *scheduler.Scheduler
	if cfg.ReviewCron != "" {
		var err error
		sched, err = scheduler.New(cfg.ReviewCron, marketSvc, logger)
		if err != nil {
			logger.Errorf("Invalid REVIEW_CRON %q: %v", cfg.ReviewCron, err)
			os.Exit(1)
		}
		sched.Start()
	}

	server := internal_http.NewServer(analysisSvc, marketSvc, config.NewEnvFile(cfg.EnvPath), logger)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: server.Router()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("Starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown error: %v", err)
	}
	if sched != nil {
		sched.Stop()
	}
	pool.Stop()
}

func printTasks(limit int) {
	logger := log.GetLogger()
	cfg := config.Load()
	table := service.NewTaskTable(store.NewFileStore[models.TaskRecord](cfg.TaskFile()), logger)
	table.Load()

	records := table.List(limit)
	if len(records) == 0 {
		fmt.Fprintf(os.Stdout, "No tasks found.\n")
		return
	}
	for _, rec := range records {
		line := fmt.Sprintf("- %s  code=%s  status=%s  started=%s", rec.TaskID, rec.Code, rec.Status, rec.StartTime)
		if rec.Error != "" {
			line += "  error=" + rec.Error
		}
		fmt.Fprintln(os.Stdout, line)
	}
}

func printReviews() {
	logger := log.GetLogger()
	cfg := config.Load()
	table := service.NewReviewTable(store.NewFileStore[models.ReportRecord](cfg.ReviewFile()), logger)
	table.Load()

	records := table.List(service.DefaultReviewListLimit)
	if len(records) == 0 {
		fmt.Fprintf(os.Stdout, "No reviews found.\n")
		return
	}
	for _, rec := range records {
		if rec.Error != "" {
			fmt.Fprintf(os.Stdout, "- %s  generation failed: %s\n", rec.Date, rec.Error)
			continue
		}
		fmt.Fprintf(os.Stdout, "- %s  generated_at=%s\n%s\n", rec.Date, rec.GeneratedAt, rec.Report)
	}
}
