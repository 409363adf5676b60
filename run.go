package main

import (
	"context"
	"time"

	"github.com/milk9111/scripthost/watch"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunHeadless drives the engine at the configured rate until ctx is done or
// the frame limit is reached. With unpaced set frames run back to back.
func RunHeadless(ctx context.Context, e *Engine, unpaced bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var w *watch.Watcher
	if dirs := e.WatchDirs(); len(dirs) > 0 {
		var err error
		w, err = watch.New(dirs...)
		if err != nil {
			return err
		}
		defer w.Close()
		e.logger.Info("watching for script changes", zap.Strings("dirs", dirs))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return frameLoop(ctx, e, unpaced)
	})

	if w != nil {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case path, ok := <-w.Events:
					if !ok {
						return nil
					}
					e.HandleChange(path)
				case err, ok := <-w.Errors:
					if !ok {
						return nil
					}
					e.logger.Warn("watcher error", zap.Error(err))
				}
			}
		})
	}

	return g.Wait()
}

func frameLoop(ctx context.Context, e *Engine, unpaced bool) error {
	limit := e.cfg.Frames
	done := func() bool {
		return limit > 0 && e.Host.Frame() >= limit
	}

	if unpaced {
		for !done() {
			if ctx.Err() != nil {
				return nil
			}
			e.Host.ExecuteUpdate()
		}
		return nil
	}

	ticker := time.NewTicker(time.Second / time.Duration(e.cfg.TPS))
	defer ticker.Stop()
	for !done() {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Host.ExecuteUpdate()
		}
	}
	return nil
}
