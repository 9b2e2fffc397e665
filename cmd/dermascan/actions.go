package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/menta2k/dermascan"
	"github.com/menta2k/dermascan/internal/config"
	"github.com/menta2k/dermascan/internal/logging"
	"github.com/menta2k/dermascan/internal/server"
	"github.com/menta2k/dermascan/internal/utils"
	"github.com/menta2k/dermascan/pkg/annotate"
	"github.com/menta2k/dermascan/pkg/library"
	"github.com/menta2k/dermascan/pkg/types"
)

// setup loads configuration and builds the logger from global flags
func setup(c *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return nil, nil, err
	}
	if lvl := c.String(flagLogLevel); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if c.Bool(flagDev) {
		cfg.Logging.Development = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid configuration")
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, nil, errors.Wrap(err, "logger")
	}
	return cfg, logger, nil
}

// newService wires the pipeline from configuration
func newService(cfg *config.Config, logger *zap.Logger) *dermascan.Service {
	opts := dermascan.DefaultOptions()
	opts.RoboflowBaseURL = cfg.Providers.RoboflowBaseURL
	opts.GeminiBaseURL = cfg.Providers.GeminiBaseURL
	opts.Timeout = cfg.Providers.Timeout
	opts.MaxUploadDim = cfg.Providers.MaxUploadDim
	opts.UploadQuality = cfg.Render.Quality
	opts.Detection.SimulationDelay = cfg.Simulation.Delay
	opts.Render.ContainerWidth = cfg.Render.ContainerWidth
	opts.Render.MaxHeight = cfg.Render.MaxHeight
	opts.Logger = logger
	return dermascan.New(opts)
}

// ServeAction runs the HTTP API until interrupted
func ServeAction(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(newService(cfg, logger), cfg, logger)
	return srv.Run(ctx)
}

// AnalyzeAction detects conditions in every source and writes results to --out
func AnalyzeAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one image source is required")
	}
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	provider := providerFromFlags(c, cfg.Providers)
	svc := newService(cfg, logger)

	sources, err := utils.ExpandSources(c.Args().Slice())
	if err != nil {
		return err
	}
	outDir := c.String(flagOut)
	if err := utils.EnsureDir(outDir); err != nil {
		return errors.Wrap(err, "output directory")
	}
	format := c.String(flagFormat)
	if format == "" {
		format = cfg.Render.Format
	}

	var failed int
	for _, source := range sources {
		if err := analyzeOne(c, svc, provider, source, outDir, format, cfg.Render.Quality); err != nil {
			logger.Error("analysis failed", zap.String("source", source), zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d sources failed", failed, len(sources))
	}
	return nil
}

func analyzeOne(c *cli.Context, svc *dermascan.Service, provider types.ProviderConfig, source, outDir, format string, quality int) error {
	req, err := svc.RequestFromSource(source, provider)
	if err != nil {
		return err
	}
	det, err := svc.Detect(c.Context, req)
	if err != nil {
		return err
	}

	js, err := json.MarshalIndent(det, "", "  ")
	if err != nil {
		return err
	}
	jsonPath := utils.GenerateOutputFilename(source, outDir, "", "", "json")
	if err := os.WriteFile(jsonPath, js, 0o644); err != nil {
		return errors.Wrap(err, "write detection")
	}

	if c.Bool(flagJSON) {
		fmt.Fprintln(c.App.Writer, string(js))
	} else {
		printDetection(c, svc, source, det, req.Image)
	}

	if !c.Bool(flagAnnotate) || len(det.Boxes) == 0 {
		return nil
	}
	img, legend, err := svc.AnnotateDetection(req.Image, det, annotate.Zoom(c.Float64(flagZoom)))
	if err != nil {
		return errors.Wrap(err, "annotate")
	}
	imgPath := utils.GenerateOutputFilename(source, outDir, "", "_annotated", format)
	if err := svc.SaveImage(img, imgPath, format, quality); err != nil {
		return err
	}
	if !c.Bool(flagJSON) {
		for _, e := range legend {
			fmt.Fprintf(c.App.Writer, "  %s %s (%d%%)\n", e.Color, e.Label, e.ConfidencePercent)
		}
		fmt.Fprintf(c.App.Writer, "  wrote %s\n", imgPath)
	}
	return nil
}

func printDetection(c *cli.Context, svc *dermascan.Service, source string, det *types.Detection, data []byte) {
	w := c.App.Writer
	size := utils.FormatFileSize(int64(len(data)))
	if info, err := svc.Inspect(data); err == nil {
		fmt.Fprintf(w, "%s (%dx%d, %s)\n", source, info.Width, info.Height, size)
	} else {
		fmt.Fprintf(w, "%s (%s)\n", source, size)
	}
	tag := ""
	if det.IsSimulated {
		tag = " [simulated]"
	}
	fmt.Fprintf(w, "  %s: %d%% %s%s\n", det.Label, det.ConfidencePercent, det.Severity, tag)
	if det.Description != "" {
		fmt.Fprintf(w, "  %s\n", det.Description)
	}
	for _, m := range det.Conditions {
		if m.Disease != nil {
			fmt.Fprintf(w, "  library: %s -> %s\n", m.Label, m.Disease.ID)
		}
	}
	for _, s := range det.Suggestions {
		fmt.Fprintf(w, "  - %s\n", s)
	}
}

func providerFromFlags(c *cli.Context, p config.ProvidersConfig) types.ProviderConfig {
	pc := p.Provider(c.String(flagProvider))
	if v := c.String(flagRoboflowKey); v != "" {
		pc.Detector.APIKey = v
	}
	if v := c.String(flagModelID); v != "" {
		pc.Detector.ModelID = v
	}
	if v := c.String(flagGeminiKey); v != "" {
		pc.Generative.APIKey = v
	}
	if v := c.String(flagLocalURL); v != "" {
		pc.Local.URL = v
	}
	if v := c.String(flagLocalModel); v != "" {
		pc.Local.Model = v
	}
	return pc
}

// MatchAction prints the library entry for each label
func MatchAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one label is required")
	}
	for _, label := range c.Args().Slice() {
		info, ok := library.Match(label)
		if !ok {
			fmt.Fprintf(c.App.Writer, "%s: no match\n", label)
			continue
		}
		fmt.Fprintf(c.App.Writer, "%s: %s (%s)\n", label, info.Name, info.ID)
		fmt.Fprintf(c.App.Writer, "  %s\n", info.Description)
		if len(info.WhenToSeeDoctor) > 0 {
			fmt.Fprintf(c.App.Writer, "  see a doctor if: %s\n", strings.Join(info.WhenToSeeDoctor, "; "))
		}
	}
	return nil
}

// LibraryAction lists the catalog ids and names
func LibraryAction(c *cli.Context) error {
	for _, d := range library.All() {
		fmt.Fprintf(c.App.Writer, "%-14s %s\n", d.ID, d.Name)
	}
	return nil
}

// ConfigInitAction writes the default configuration file
func ConfigInitAction(c *cli.Context) error {
	path := c.String(flagPath)
	if path == "" {
		path = config.GetConfigPath()
	}
	if utils.FileExists(path) && !c.Bool(flagForce) {
		return errors.Errorf("%s already exists (use --%s to overwrite)", path, flagForce)
	}
	if err := config.Default().SaveToFile(path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}
