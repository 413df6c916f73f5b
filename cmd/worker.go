package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/hosted-checkout/internal/reconcile"
	"github.com/frahmantamala/hosted-checkout/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that keep local orders in line with the payment gateway.`,
}

var reconcileWorkerCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Start the order reconcile worker",
	Long:  `Periodically replays orders still waiting for payment against the gateway's view of them`,
	Run: func(cmd *cobra.Command, args []string) {
		startReconcileWorker()
	},
}

var (
	maxWorkers int
	batchSize  int
	runOnce    bool
)

func startReconcileWorker() {
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.LoggerWrapper()

	deps, err := initCheckoutDeps(config, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	reconcileConfig := reconcile.Config{
		Interval:   config.Reconcile.Interval,
		StaleAfter: config.Reconcile.StaleAfter,
		MaxWorkers: getIntFlag(maxWorkers, config.Reconcile.MaxWorkers),
		BatchSize:  getIntFlag(batchSize, config.Reconcile.BatchSize),
	}

	log.Info("starting reconcile worker",
		"max_workers", reconcileConfig.MaxWorkers,
		"batch_size", reconcileConfig.BatchSize,
		"once", runOnce)

	reconciler := reconcile.NewReconciler(
		deps.Stale,
		deps.Orders,
		deps.Gateway,
		deps.Processor,
		deps.Handlers,
		deps.Events,
		reconcileConfig,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if runOnce {
		reconciler.Start()
		queued, err := reconciler.Sweep(ctx)
		reconciler.Drain(ctx)
		reconciler.Stop()
		if err != nil {
			log.Error("reconcile sweep failed", "error", err)
			return
		}
		log.Info("reconcile sweep done", "queued", queued)
		return
	}

	if err := reconciler.Run(ctx); err != nil {
		log.Error("reconcile worker stopped with error", "error", err)
	}
	log.Info("reconcile worker shutdown complete")
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	reconcileWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	reconcileWorkerCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Stale orders picked per sweep (overrides config)")
	reconcileWorkerCmd.Flags().BoolVar(&runOnce, "once", false, "Run a single sweep and exit")

	workerCmd.AddCommand(reconcileWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
