package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"eventbatch/internal/config"
	"eventbatch/internal/logging"
	"eventbatch/internal/media/ffprobe"
	"eventbatch/internal/presets"
	"eventbatch/internal/projectdb"
	"eventbatch/internal/render"
	"eventbatch/internal/timeline"
)

type commandContext struct {
	configFlag  *string
	projectFlag *string
	verbose     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, projectFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		projectFlag: projectFlag,
		verbose:     verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.verbose != nil && *c.verbose {
			cfg.Logging.Level = "debug"
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the logger on first use and prunes old log files.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		if dir := cfg.Paths.LogDir; dir != "" {
			logging.CleanupOldLogs(logger, dir, cfg.Logging.RetentionDays, filepath.Join(dir, logging.LogFileName))
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) projectPath() (string, error) {
	if c.projectFlag != nil {
		if path := strings.TrimSpace(*c.projectFlag); path != "" {
			return config.ExpandPath(path)
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	if cfg.Paths.ProjectFile == "" {
		return "", errors.New("no project file: pass --project or set paths.project_file")
	}
	return cfg.Paths.ProjectFile, nil
}

// session is an open project with its host services attached.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *projectdb.Store
	project  *timeline.Project
	registry *render.Registry
}

// openSession opens the project file. With create set, a missing project is
// started empty at the configured frame rate.
func (c *commandContext) openSession(ctx context.Context, create bool) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	path, err := c.projectPath()
	if err != nil {
		return nil, err
	}
	store, err := projectdb.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	ffmpeg := render.NewFFmpeg(cfg.Tools.FFmpeg, logger)
	registry := render.NewRegistry(cfg.Templates, logger, ffmpeg, render.NewDrapto(ffmpeg, logger))
	opts := []timeline.ProjectOption{
		timeline.WithRenderBackend(registry),
		timeline.WithMediaProber(ffprobe.NewProber(cfg.Tools.FFprobe, logger)),
	}

	project, err := store.Load(ctx)
	if errors.Is(err, projectdb.ErrNoProject) && create {
		project, err = timeline.NewProject(cfg.Render.FrameRate), nil
	}
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load project %s: %w", path, err)
	}
	project.Configure(opts...)
	return &session{cfg: cfg, logger: logger, store: store, project: project, registry: registry}, nil
}

// withSession runs fn against the project. Mutating sessions hold the
// project lock and save the project even when fn fails, since jobs finished
// before a failure have already been spliced back.
func (c *commandContext) withSession(cmd *cobra.Command, mutate bool, fn func(*session) error) error {
	ctx := cmd.Context()
	s, err := c.openSession(ctx, mutate)
	if err != nil {
		return err
	}
	defer s.store.Close()

	if !mutate {
		return fn(s)
	}
	if err := s.store.Lock(); err != nil {
		return err
	}
	runErr := fn(s)
	if err := s.store.Save(context.WithoutCancel(ctx), s.project); err != nil {
		return errors.Join(runErr, fmt.Errorf("save project: %w", err))
	}
	return runErr
}

func (c *commandContext) presetRegistry() (*presets.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	registry := presets.NewRegistry(logger)
	if _, err := registry.LoadFile(cfg.Paths.PresetFile); err != nil {
		return nil, err
	}
	return registry, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
