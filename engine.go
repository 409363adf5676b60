package main

import (
	"fmt"

	"github.com/milk9111/scripthost/assembly"
	"github.com/milk9111/scripthost/config"
	"github.com/milk9111/scripthost/host"
	"github.com/milk9111/scripthost/script"
	"github.com/milk9111/scripthost/trace"
	"github.com/milk9111/scripthost/watch"
	"go.uber.org/zap"
)

// Engine wires a host to a configuration.
type Engine struct {
	Host   *host.Host
	cfg    config.Config
	logger *zap.Logger
}

// NewEngine initializes a host, attaches the configured scripts, starts
// them and runs the configured invocations.
func NewEngine(cfg config.Config, tracer trace.Tracer, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []host.Option{host.WithLogger(logger.Named("host")), host.WithTracer(tracer)}
	if cfg.ScriptsDir != "" {
		opts = append(opts, host.WithScriptsDir(cfg.ScriptsDir))
	} else {
		opts = append(opts, host.WithScripts(assembly.Embedded()))
	}

	h := host.New(opts...)
	if err := h.Init(); err != nil {
		return nil, err
	}
	if err := h.Ping(); err != nil {
		return nil, fmt.Errorf("engine: ping: %w", err)
	}

	for _, e := range cfg.Entities {
		for _, name := range e.Scripts {
			if err := h.AddScript(e.ID, name); err != nil {
				return nil, fmt.Errorf("engine: entity %s: %w", e.ID, err)
			}
		}
	}
	for _, e := range cfg.Entities {
		if len(e.Scripts) == 0 {
			continue
		}
		if err := h.ExecuteStartForEntity(e.ID); err != nil {
			return nil, fmt.Errorf("engine: start %s: %w", e.ID, err)
		}
	}

	for _, inv := range cfg.Invoke {
		if err := invoke(h, inv.Target, inv.Args...); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}

	return &Engine{Host: h, cfg: cfg, logger: logger}, nil
}

func invoke(h *host.Host, key string, args ...string) error {
	target, method, ok := script.SplitCommandKey(key)
	if !ok {
		return fmt.Errorf("invoke %q: %w", key, script.ErrUnknownCommand)
	}
	if err := h.Invoke(target, method, args...); err != nil {
		return fmt.Errorf("invoke %s: %w", key, err)
	}
	return nil
}

// HandleChange reacts to a watched file changing on disk.
func (e *Engine) HandleChange(path string) {
	if !watch.IsWatched(path) {
		return
	}
	if !assembly.IsScriptFile(path) {
		e.logger.Info("config changed on disk, restart to apply", zap.String("path", path))
		return
	}
	if err := e.Host.Reload(); err != nil {
		e.logger.Error("script reload failed", zap.String("path", path), zap.Error(err))
		return
	}
	e.logger.Info("scripts reloaded", zap.String("path", path))
}

// WatchDirs returns the directories to watch for hot reload.
func (e *Engine) WatchDirs() []string {
	if !e.cfg.Watch || e.cfg.ScriptsDir == "" {
		return nil
	}
	return []string{e.cfg.ScriptsDir}
}

func (e *Engine) Shutdown() {
	e.Host.Shutdown()
}
