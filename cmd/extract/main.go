package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/archive"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-frame-sampler/internal/sampling"
	"github.com/fiapx/fiapx-frame-sampler/pkg/logger"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	video        string
	interval     float64
	outDir       string
	archiveName  string
	archiveDir   string
	quality      int
	maxWidth     int
	level        int
	ffmpegPath   string
	probeTimeout time.Duration
	logLevel     string
	noProgress   bool
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Sample frames from a video and pack them into a zip archive",
		Long: `extract decodes a video, saves one JPEG every --interval seconds and
bundles the images into a single zip archive.

Examples:
  extract --video clip.mp4
  extract --video clip.mp4 --interval 0.5 --out ./frames
  extract --video clip.mov --archive-name clip_frames.zip --archive-dir ./out`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.NewConsole(opts.logLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			return run(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), log)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.video, "video", "v", "", "Path of the video to sample")
	f.Float64VarP(&opts.interval, "interval", "i", 2, "Seconds between saved frames")
	f.StringVarP(&opts.outDir, "out", "o", "", "Directory for the extracted images (default: a new temp dir)")
	f.StringVar(&opts.archiveName, "archive-name", "extracted_frames.zip", "File name of the zip archive")
	f.StringVar(&opts.archiveDir, "archive-dir", ".", "Directory the archive is written to")
	f.IntVar(&opts.quality, "quality", sampling.DefaultJPEGQuality, "JPEG quality (1-100)")
	f.IntVar(&opts.maxWidth, "max-width", 0, "Downscale frames wider than this many pixels (0 keeps the source size)")
	f.IntVar(&opts.level, "level", archive.DefaultCompressionLevel, "Deflate compression level (1-9)")
	f.StringVar(&opts.ffmpegPath, "ffmpeg", "ffmpeg", "ffmpeg binary")
	f.DurationVar(&opts.probeTimeout, "probe-timeout", 30*time.Second, "Timeout for ffprobe")
	f.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	f.BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")
	_ = cmd.MarkFlagRequired("video")

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer, log *zap.Logger) error {
	if opts.outDir == "" {
		dir, err := os.MkdirTemp("", "frames-")
		if err != nil {
			return entity.AtStage(entity.StageExtraction, fmt.Errorf("%w: create output dir: %w", entity.ErrIO, err))
		}
		opts.outDir = dir
	}

	extractor := ffmpeg.NewExtractor(
		ffmpeg.NewOpener(opts.ffmpegPath, opts.probeTimeout, log),
		sampling.NewSampler(sampling.NewResizingWriter(sampling.NewJPEGWriter(opts.quality), opts.maxWidth)),
		log,
	)

	var progress port.ProgressFunc
	if !opts.noProgress {
		bar := newProgressBar(stderr)
		progress = func(fraction float64) {
			_ = bar.Set(int(fraction * 100))
		}
		defer bar.Finish()
	}

	res, err := extractor.ExtractFrames(ctx, opts.video, opts.interval, opts.outDir, progress)
	if err != nil {
		return err
	}

	archivePath, err := archive.NewZipBuilder(opts.archiveDir, opts.level, log).
		BuildArchive(ctx, res.OutputDir, opts.archiveName)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Extracted %d images (about %d per minute) into %s\n",
		res.SavedCount, entity.EstimateImagesPerMinute(opts.interval), res.OutputDir)
	fmt.Fprintf(stdout, "Archive: %s\n", archivePath)
	return nil
}

func newProgressBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Extracting frames"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}
