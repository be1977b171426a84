package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pdf-translator/internal/config"
	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/pipeline"
	"pdf-translator/internal/translator"
	"pdf-translator/internal/types"
)

// outputSuffix is appended to the input name together with the target language.
const outputSuffix = "_translated.pdf"

// StatusCallback is called whenever the processing status changes.
type StatusCallback func(status *types.Status)

// App is the application controller. It owns the configuration, the
// translation backend chain and the pipeline service, and manages their lifecycle.
type App struct {
	config  *config.ConfigManager
	service *pipeline.Service
	cache   *translator.TranslationCache

	// backend overrides the configured chat backend when set before startup.
	backend translator.Translator

	// Status tracking
	status         *types.Status
	statusMu       sync.RWMutex
	statusCallback StatusCallback
}

// TranslationOutcome describes a finished translation written to disk.
type TranslationOutcome struct {
	InputPath  string
	OutputPath string
	Result     *pipeline.Result
}

// NewApp creates an App using the configuration file at configPath
// (empty for the default location).
func NewApp(configPath string) (*App, error) {
	configMgr, err := config.NewConfigManager(configPath)
	if err != nil {
		return nil, err
	}
	return &App{
		config: configMgr,
		status: &types.Status{Phase: types.PhaseIdle},
	}, nil
}

// SetTranslator replaces the configured chat backend. It must be called before startup.
func (a *App) SetTranslator(t translator.Translator) {
	a.backend = t
}

// SetStatusCallback sets the callback for status updates.
func (a *App) SetStatusCallback(callback StatusCallback) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	a.statusCallback = callback
}

// GetStatus returns a copy of the current status.
func (a *App) GetStatus() *types.Status {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	s := *a.status
	return &s
}

// startup loads the configuration, initializes logging and builds the pipeline.
func (a *App) startup(ctx context.Context) error {
	if err := a.config.Load(); err != nil {
		return err
	}
	cfg := a.config.GetConfig()

	if err := logger.Init(a.config.GetLoggerConfig()); err != nil {
		return types.NewAppError(types.ErrConfig, "failed to initialize logger", err)
	}
	logger.Info("application starting up", logger.String("config", a.config.GetConfigPath()))

	backend := a.backend
	if backend == nil {
		chat, err := translator.NewChatBackend(ctx, translator.ChatBackendConfig{
			APIKey:  a.config.GetAPIKey(),
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
		if err != nil {
			return err
		}
		backend = chat
	}

	backend = translator.NewRetryingTranslator(backend, translator.RetryConfig{MaxAttempts: cfg.MaxRetries})

	if cfg.CachePath != "" {
		a.cache = translator.NewTranslationCache(cfg.CachePath)
		if err := a.cache.Load(); err != nil {
			logger.Warn("failed to load translation cache", logger.String("path", cfg.CachePath), logger.Err(err))
		}
		backend = translator.NewCachedTranslator(backend, a.cache, nil)
	}

	profiles := pdf.DefaultProfiles()
	if cfg.FontProfilesFile != "" {
		merged, err := pdf.LoadProfileOverrides(cfg.FontProfilesFile, profiles)
		if err != nil {
			logger.Warn("ignoring font profile overrides", logger.Err(err))
		} else {
			profiles = merged
		}
	}
	fonts := pdf.NewFontRegistry(pdf.FontRegistryConfig{Directory: cfg.FontDirectory, Profiles: profiles})

	a.service = pipeline.New(pipeline.Config{
		Translator:        backend,
		Renderer:          pdf.NewRenderer(pdf.RendererConfig{Fonts: fonts}),
		ChunkSize:         cfg.ChunkSize,
		RecoveryChunkSize: cfg.RecoveryChunkSize,
		Concurrency:       cfg.Concurrency,
		CallTimeout:       a.config.GetCallTimeout(),
		Placeholder:       cfg.Placeholder,
	})

	logger.Info("application startup complete",
		logger.String("model", cfg.OpenAIModel),
		logger.String("fontDir", cfg.FontDirectory),
		logger.Int("chunkSize", cfg.ChunkSize))
	return nil
}

// shutdown saves the translation cache and closes the log.
func (a *App) shutdown() {
	logger.Info("application shutting down")
	if a.cache != nil {
		if err := a.cache.Save(); err != nil {
			logger.Warn("failed to save translation cache", logger.Err(err))
		}
	}
	logger.Info("application shutdown complete")
	_ = logger.Close()
}

// TranslatePDF translates the PDF at inputPath and writes the result to
// outputPath, or next to the input when outputPath is empty.
func (a *App) TranslatePDF(ctx context.Context, inputPath, sourceLang, targetLang, outputPath string) (*TranslationOutcome, error) {
	if a.service == nil {
		return nil, types.NewAppError(types.ErrInternal, "application not started", nil)
	}
	if outputPath == "" {
		outputPath = OutputPath(inputPath, targetLang, a.config.GetConfig().WorkDirectory)
	}

	start := time.Now()
	res, err := a.service.Process(ctx, pipeline.Request{
		Path:       inputPath,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Filename:   filepath.Base(inputPath),
		OnStatus:   a.updateStatus,
	})
	if err != nil {
		return nil, err
	}

	if err := pdf.WriteFile(res.Document, outputPath); err != nil {
		a.updateStatus(types.Status{Phase: types.PhaseError, Error: err.Error()})
		return nil, err
	}

	logger.Info("translated PDF written",
		logger.String("output", outputPath),
		logger.Int("bytes", res.Document.Size()),
		logger.String("elapsed", time.Since(start).String()))
	return &TranslationOutcome{InputPath: inputPath, OutputPath: outputPath, Result: res}, nil
}

func (a *App) updateStatus(status types.Status) {
	a.statusMu.Lock()
	*a.status = status
	callback := a.statusCallback
	a.statusMu.Unlock()

	if callback != nil {
		s := status
		callback(&s)
	}
}

// OutputPath returns "<name>_<target>_translated.pdf" in dir, or next to input
// when dir is empty.
func OutputPath(input, targetLang, dir string) string {
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	file := name + "_" + types.NormalizeLanguageCode(targetLang) + outputSuffix
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, file)
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
