// File: pkg/compiler/worker.go
package compiler

import (
	"context"
	"runtime"
	"sync"

	"compbuild/pkg/transform"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// targetResult is what one target pass produced.
type targetResult struct {
	infos        []CompileInfo
	copied       int
	copyFailures int
}

// processFiles runs every job of one target on a bounded pool. Copy failures
// are logged and counted; the first transform failure cancels the pool and is
// returned.
func processFiles(ctx context.Context, jobs []fileJob, params transform.Params, tr transform.Transformer, maxWorkers int, logger *zap.Logger) (targetResult, error) {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
		logger.Debug("Adjusted worker count", zap.Int("workers", maxWorkers))
	}

	var (
		mu  sync.Mutex
		res targetResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for _, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		job := job
		g.Go(func() error {
			if !job.kind.Transformable() {
				if err := copyFile(job, logger); err != nil {
					logger.Error("Failed to copy file",
						zap.String("file", job.relPath),
						zap.String("target", string(job.target)),
						zap.Error(err))
					mu.Lock()
					res.copyFailures++
					mu.Unlock()
					return nil
				}
				logger.Info("File copied", zap.String("file", job.relPath), zap.String("target", string(job.target)))
				mu.Lock()
				res.copied++
				mu.Unlock()
				return nil
			}

			info, err := transformFile(gctx, job, params, tr, logger)
			if err != nil {
				return err
			}
			logger.Debug("File compiled", zap.String("file", job.relPath), zap.String("target", string(job.target)))
			mu.Lock()
			res.infos = append(res.infos, info)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, ctx.Err()
}
