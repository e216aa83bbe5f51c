package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oasara/enrich-cli/internal/fetch"
	"github.com/oasara/enrich-cli/internal/pipeline"
	"github.com/oasara/enrich-cli/internal/store"
	"github.com/oasara/enrich-cli/internal/strategy"
	"github.com/oasara/enrich-cli/pkg/vision"
)

const testModeLimit = 5

var (
	runLimit     int
	runCountry   string
	runTest      bool
	runUseVision bool
	runResume    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich a batch of facilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Ping(ctx); err != nil {
			return eris.Wrap(err, "store unreachable")
		}

		checkpointer, err := pipeline.NewCheckpointer(cfg.Batch.OutputDir)
		if err != nil {
			return err
		}

		limit := runLimit
		skipWrite := false
		if runTest {
			skipWrite = true
			if limit == 0 || limit > testModeLimit {
				limit = testModeLimit
			}
			zap.L().Info("test mode: writes disabled", zap.Int("limit", limit))
		}

		p, cleanup := buildPipeline(st, skipWrite, runUseVision, false)
		defer cleanup()
		orchestrator := pipeline.NewOrchestrator(st, p, checkpointer, cfg.Batch)

		report, err := orchestrator.RunBatch(ctx, pipeline.BatchOptions{
			Country: runCountry,
			Limit:   limit,
			Resume:  runResume,
		})
		if report != nil {
			fmt.Fprintln(cmd.OutOrStdout(), pipeline.FormatReport(report))
		}
		if err != nil && ctx.Err() != nil {
			// Interrupted batches already flushed a checkpoint; the
			// partial report above is the useful output.
			zap.L().Warn("run: batch interrupted", zap.Error(err))
			return nil
		}
		return err
	},
}

// buildPipeline wires fetchers, the strategy chain, and persistence
// into a ready pipeline. The returned cleanup shuts down the shared
// browser process.
func buildPipeline(st store.Store, skipWrite, useVision, visionAlways bool) (*pipeline.Pipeline, func()) {
	browser := fetch.NewBrowserFetcher(cfg.Fetch)
	static := fetch.NewStaticFetcher(cfg.Fetch)

	// One bucket per destination host, shared by browser renders and
	// static refetches alike.
	hosts := pipeline.NewHostLimiter(1, 1)

	chain := strategy.NewChain(
		strategy.NewStructural(),
		strategy.NewTextPattern(),
		strategy.NewStaticDoc(pipeline.NewRateLimitedFetcher(static, hosts)),
	)

	fetcher := pipeline.NewRateLimitedFetcher(browser, hosts)
	adapter := pipeline.NewAdapter(st, skipWrite)
	p := pipeline.New(fetcher, chain, adapter, cfg.Extract.SuccessThreshold)

	if useVision {
		if cfg.Vision.Key == "" {
			zap.L().Warn("vision requested but vision.key is empty; continuing without it")
			return p, browser.Close
		}
		client := vision.NewClient(cfg.Vision.Key, cfg.Vision.Model, int64(cfg.Vision.MaxTokens),
			time.Duration(cfg.Vision.TimeoutSecs)*time.Second)
		p.WithVision(strategy.NewVision(browser, client, cfg.Vision.Sections), visionAlways)
	}
	return p, browser.Close
}

func init() {
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max facilities to process (0 = all)")
	runCmd.Flags().StringVar(&runCountry, "country", "", "only facilities in this country")
	runCmd.Flags().BoolVar(&runTest, "test", false, "process at most 5 facilities without writing")
	runCmd.Flags().BoolVar(&runUseVision, "use-vision", false, "screenshot facilities whose pages yield nothing")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "skip facilities recorded in the newest checkpoint")
	rootCmd.AddCommand(runCmd)
}
