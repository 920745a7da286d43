package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/metrics"
)

// Run drives cfg.Frames frames headlessly. fn, if non-nil, sees every
// committed frame and can stop the run early by returning false. Discarded
// frames are counted in the result and do not stop the run.
func (e *Engine) Run(ctx context.Context, cfg RunConfig, fn func(FrameInfo) bool) (*Result, error) {
	if err := validateRunConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{Metrics: make(map[string]float64)}
	if cfg.Record {
		result.Samples = make([]metrics.Sample, 0, cfg.Frames)
	}
	for _, m := range e.metrics {
		m.Reset()
	}

	dynamo.Logger().Info("run started", "frames", cfg.Frames, "fps", cfg.FPS)

	prev := -1.0
	for i := 0; i < cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			e.summarize(result)
			return result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		now := float64(i) / cfg.FPS
		if cfg.Driver != nil {
			for _, ev := range cfg.Driver.Events(prev, now) {
				e.Pointer(ev)
			}
		}
		prev = now

		if _, err := e.Frame(now); err != nil {
			var ferr *dynamo.FrameError
			if !errors.As(err, &ferr) {
				return result, err
			}
			result.Faults++
			continue
		}
		result.Frames++

		if cfg.Record || fn != nil {
			info := e.lastInfo(now)
			if cfg.Record {
				s := metrics.Measure(info.Field)
				s.Frame, s.Time, s.AutoMove = info.Index, now, info.Force.UsingAutoMovement
				result.Samples = append(result.Samples, s)
			}
			if fn != nil && !fn(info) {
				break
			}
		}
	}

	e.summarize(result)
	dynamo.Logger().Info("run finished", "frames", result.Frames, "faults", result.Faults)
	return result, nil
}

func (e *Engine) lastInfo(now float64) FrameInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return FrameInfo{
		Index: e.frame - 1,
		Time:  now,
		Field: e.pair.Previous(),
		Image: e.current,
		Force: e.last,
	}
}

func (e *Engine) summarize(result *Result) {
	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateRunConfig(cfg RunConfig) error {
	if !(cfg.FPS > 0) || !dynamo.IsFinite(cfg.FPS) {
		return fmt.Errorf("fps must be positive, got %v: %w", cfg.FPS, dynamo.ErrParameterBounds)
	}
	if cfg.Frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d: %w", cfg.Frames, dynamo.ErrParameterBounds)
	}
	return nil
}
