package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"specgen/internal/collect"
	"specgen/internal/domain"
	"specgen/internal/exchange"
	"specgen/internal/metrics"
	"specgen/internal/sink"
	"specgen/pkg/config"
)

type submitOptions struct {
	mode      string
	attach    []string
	outputDir string
	sink      string
	overwrite bool
}

func newSubmitCmd() *cobra.Command {
	opts := &submitOptions{}

	cmd := &cobra.Command{
		Use:   "submit [files...]",
		Short: "Upload design documents and save the generated archive",
		Long: `Upload the files for one mode and save the archive the generator returns.

Positional files go to the first slot of the mode. Other slots are filled
with --attach field=path, which may be repeated.

Examples:
  specgen submit design.xlsx
  specgen submit --mode integration a.xlsx b.xlsx --attach transitionDiagramFile=diagram.xlsx
  specgen submit design.xlsx --output-dir ./out
  specgen --target deployed submit design.xlsx --sink s3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", string(domain.ModeUnit),
		"Generation mode: unit or integration")
	cmd.Flags().StringArrayVarP(&opts.attach, "attach", "a", nil,
		"Attach a file to a slot as field=path (repeatable)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "",
		"Directory to save the archive in (fs sink)")
	cmd.Flags().StringVar(&opts.sink, "sink", "",
		"Where to save the archive: fs or s3")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false,
		"Replace an existing file instead of adding a (n) suffix")

	return cmd
}

func runSubmit(cmd *cobra.Command, args []string, opts *submitOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	mode, err := domain.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	profiles := cfg.Profiles()
	profile, ok := profiles[mode]
	if !ok {
		return fmt.Errorf("mode %s is not configured", mode)
	}

	req, err := buildRequest(profile, args, opts.attach, collect.New(cfg.Upload.MaxFileSize))
	if err != nil {
		return err
	}

	outputCfg := *cfg
	if opts.outputDir != "" {
		outputCfg.Output.Dir = opts.outputDir
	}
	if opts.sink != "" {
		outputCfg.Output.Sink = opts.sink
	}
	if opts.overwrite {
		outputCfg.Output.Overwrite = true
	}
	if err := outputCfg.Validate(); err != nil {
		return fmt.Errorf("invalid output settings: %w", err)
	}

	target, err := sink.New(ctx, &outputCfg, log)
	if err != nil {
		return fmt.Errorf("failed to create sink: %w", err)
	}

	recorder := metrics.New()
	defer flushMetrics(recorder)

	client, err := exchange.NewClient(exchange.Options{
		Endpoint:        cfg.ResolveEndpoint(),
		ModeField:       cfg.Upload.ModeField,
		DefaultFilename: cfg.Upload.DefaultFilename,
		UserAgent:       cfg.HTTP.UserAgent,
		Profiles:        profiles,
		HTTPClient:      &http.Client{Timeout: cfg.HTTP.Timeout},
		Logger:          log,
		Recorder:        recorder,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	trigger := exchange.NewTrigger(client, messages(cfg.Messages), func(status string, enabled bool) {
		fmt.Fprintln(out, status)
	})

	var location string
	result, err := trigger.Fire(ctx, req, func(ctx context.Context, r *domain.DownloadResult) error {
		saved, serr := target.Save(ctx, r)
		location = saved
		return serr
	})
	if err != nil {
		if failure, ok := exchange.AsFailure(err); ok {
			printMissing(out, failure.Missing)
		}
		return err
	}

	fmt.Fprintf(out, "Saved: %s (%.2f KB)\n", location, float64(result.Size())/1024)
	if result.RequestID != "" {
		fmt.Fprintf(out, "Request ID: %s\n", result.RequestID)
	}
	return nil
}

// buildRequest assigns positional files to the first slot and --attach pairs by field.
func buildRequest(profile domain.Profile, args, attach []string, collector *collect.Collector) (*domain.UploadRequest, error) {
	req := domain.NewUploadRequest(profile.Mode)

	if len(args) > 0 {
		files, err := collector.Files(args)
		if err != nil {
			return nil, fmt.Errorf("failed to read files: %w", err)
		}
		req.Add(profile.Slots[0].Field, files...)
	}

	for _, pair := range attach {
		field, path, ok := strings.Cut(pair, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" || path == "" {
			return nil, fmt.Errorf("invalid --attach %q (expected field=path)", pair)
		}
		if _, known := profile.Slot(field); !known {
			return nil, fmt.Errorf("mode %s has no field %q (fields: %s)", profile.Mode, field, strings.Join(fieldNames(profile), ", "))
		}
		file, err := collector.File(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		req.Add(field, file)
	}

	return req, nil
}

func messages(m config.MessagesConfig) exchange.Messages {
	return exchange.Messages{
		Generating:     m.Generating,
		Completed:      m.Completed,
		ServerError:    m.ServerError,
		TransportError: m.TransportError,
		SaveError:      m.SaveError,
	}
}

func printMissing(out io.Writer, missing []domain.MissingSlot) {
	for _, m := range missing {
		fmt.Fprintf(out, "  - %s\n", m.String())
	}
}

func fieldNames(profile domain.Profile) []string {
	names := make([]string, 0, len(profile.Slots))
	for _, s := range profile.Slots {
		names = append(names, s.Field)
	}
	return names
}

func flushMetrics(recorder *metrics.Metrics) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Warn("failed to write metrics", "error", err)
	}
}
