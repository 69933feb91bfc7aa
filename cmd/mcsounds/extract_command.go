package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mcsounds/internal/config"
	"mcsounds/internal/deps"
	"mcsounds/internal/extraction"
	"mcsounds/internal/failure"
	"mcsounds/internal/history"
	"mcsounds/internal/joblock"
	"mcsounds/internal/logging"
	"mcsounds/internal/preflight"
	"mcsounds/internal/transcode"
)

type extractOptions struct {
	source        string
	output        string
	formats       []string
	keepOriginals bool
	dryRun        bool
	jsonOut       bool
	workers       int
	verbose       bool
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Copy sound assets out of a Minecraft install and convert them",
		Long: `Extract locates the newest asset index of a Minecraft installation, copies
every indexed sound object to <output>/ogg under its logical name, and converts
the copies into the selected formats (mp3, flac, wav) under <output>/<format>.

Use --format none to copy without converting. Unless --keep-originals is set,
the intermediate .ogg files are removed once every conversion succeeded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			job, err := buildJob(cmd, cfg, opts)
			if err != nil {
				return err
			}
			return runExtract(cmd, cfg, job, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Minecraft installation folder (defaults to paths.minecraft_dir)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output folder (defaults to paths.output_dir)")
	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", nil, "Output formats: mp3, flac, wav, or none")
	cmd.Flags().BoolVar(&opts.keepOriginals, "keep-originals", true, "Keep the extracted .ogg files after conversion")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report matching sounds without copying anything")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the job summary as JSON")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Parallel conversions per format (defaults to transcode.workers)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print every copied and converted file")
	return cmd
}

// buildJob merges flags over configuration.
func buildJob(cmd *cobra.Command, cfg *config.Config, opts extractOptions) (extraction.Job, error) {
	source, err := pathOrDefault(opts.source, cfg.Paths.MinecraftDir)
	if err != nil {
		return extraction.Job{}, fmt.Errorf("resolve source: %w", err)
	}
	output, err := pathOrDefault(opts.output, cfg.Paths.OutputDir)
	if err != nil {
		return extraction.Job{}, fmt.Errorf("resolve output: %w", err)
	}

	formatNames := cfg.Extraction.Formats
	if cmd.Flags().Changed("format") {
		formatNames = nil
		for _, name := range opts.formats {
			if !strings.EqualFold(strings.TrimSpace(name), "none") {
				formatNames = append(formatNames, name)
			}
		}
	}
	formats, err := transcode.ParseFormats(formatNames)
	if err != nil {
		return extraction.Job{}, err
	}

	keep := cfg.Extraction.KeepOriginals
	if cmd.Flags().Changed("keep-originals") {
		keep = opts.keepOriginals
	}

	return extraction.Job{
		ID:            uuid.NewString(),
		SourceRoot:    source,
		OutputRoot:    output,
		Formats:       formats,
		KeepOriginals: keep,
		DryRun:        opts.dryRun,
	}, nil
}

func runExtract(cmd *cobra.Command, cfg *config.Config, job extraction.Job, opts extractOptions) error {
	logger, err := logging.NewFromConfig(cfg, job.ID, false)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "cli")

	stderr := cmd.ErrOrStderr()
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}

	for _, result := range preflight.Failed(preflight.RunAll(runCtx, cfg, job.SourceRoot, job.OutputRoot, job.Formats)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
		if !opts.jsonOut {
			fmt.Fprintln(stderr, renderStatusLine(result.Name, statusWarn, result.Detail, isTerminal(stderr)))
		}
	}

	if !job.DryRun {
		lock, err := joblock.Acquire(cfg.LocksDir(), job.OutputRoot)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("release job lock failed", logging.Error(err))
			}
		}()
	}

	workers := cfg.Transcode.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	engine := extraction.New(extraction.Options{
		Codec:           transcode.NewFFmpeg(deps.ResolveFFmpegPath(cfg.Transcode.FFmpegBinary), cfg.Transcode.MP3BitrateKbps, cfg.TranscodeTimeout()),
		Verifier:        newVerifier(cfg),
		Logger:          logger,
		Workers:         workers,
		VerifyCopies:    cfg.Extraction.VerifyCopies,
		TargetExtension: cfg.Extraction.TargetExtension,
	})

	logger.Info("extraction requested",
		logging.String(logging.FieldEventType, "job_requested"),
		logging.String("source", job.SourceRoot),
		logging.String("output", job.OutputRoot),
		logging.String("formats", strings.Join(transcode.Strings(job.Formats), ",")),
		logging.Bool("keep_originals", job.KeepOriginals),
		logging.Bool("dry_run", job.DryRun),
	)

	rep := newReporter(stderr, opts.verbose, opts.jsonOut)
	var summary extraction.Summary
	for ev := range engine.Start(runCtx, job) {
		rep.Handle(ev)
		if ev.Terminal() && ev.Summary != nil {
			summary = *ev.Summary
		}
	}
	rep.Close()

	recordHistory(runCtx, cfg, logger, summary)

	if opts.jsonOut {
		if err := writeJSON(cmd, summary); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
	}

	if summary.Failed() {
		if summary.Reason == failure.ReasonCanceled {
			return context.Canceled
		}
		return errors.New(summary.Reason.Message())
	}
	return nil
}

func newVerifier(cfg *config.Config) transcode.Verifier {
	if !cfg.Transcode.VerifyOutput {
		return nil
	}
	return transcode.ProbeVerifier{Binary: deps.ResolveFFprobePath(cfg.Transcode.FFprobeBinary)}
}

// recordHistory stores the run and prunes expired entries. History problems
// never fail the command.
func recordHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger, summary extraction.Summary) {
	if !cfg.History.Enabled || summary.JobID == "" {
		return
	}
	// The job context may already be canceled; recording still has to happen.
	ctx = context.WithoutCancel(ctx)

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is not recorded"),
		)
		return
	}
	defer store.Close()

	run, failures := history.FromSummary(summary)
	if err := store.Record(ctx, run, failures); err != nil {
		logging.WarnWithContext(logger, "record run failed", "history_record_failed", logging.Error(err))
		return
	}
	if retention := cfg.HistoryRetention(); retention > 0 {
		removed, err := store.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			logger.Warn("prune history failed", logging.Error(err))
			return
		}
		if removed > 0 {
			logger.Debug("pruned history", logging.Int64("removed", removed))
		}
	}
}
