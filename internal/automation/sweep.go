package automation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/metrics"
	"github.com/san-kum/marbling/internal/params"
	"github.com/san-kum/marbling/internal/sim"
)

// maxFlowSlack absorbs rounding when checking the flow cap.
const maxFlowSlack = 1e-9

// ParameterSweep runs the same headless scene across a range of values of
// one parameter.
type ParameterSweep struct {
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int

	Width, Height int
	Workers       int
	Base          params.Set
	Run           sim.RunConfig
	// Parallel bounds concurrent runs. Zero runs one per CPU.
	Parallel int
}

// SweepResult holds results from one value of a parameter sweep.
type SweepResult struct {
	ParamValue float64
	MeanEnergy float64
	Coverage   float64
	Stability  float64
	Faults     int
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	spec, ok := params.LookupSpec(sweep.ParamName)
	if !ok {
		return nil, fmt.Errorf("sweep: %w: %q", dynamo.ErrUnknownParameter, sweep.ParamName)
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep: %w: %d steps", dynamo.ErrParameterBounds, sweep.NumSteps)
	}
	if !spec.Contains(sweep.ParamMin) || !spec.Contains(sweep.ParamMax) {
		return nil, fmt.Errorf("sweep: %w: [%v, %v] outside [%v, %v]",
			dynamo.ErrParameterBounds, sweep.ParamMin, sweep.ParamMax, spec.Min, spec.Max)
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	values := make([]float64, sweep.NumSteps)
	jobs := make([]sim.Job, sweep.NumSteps)
	for i := range jobs {
		values[i] = sweep.ParamMin + float64(i)*paramStep
		p := sweep.Base
		if err := p.Set(sweep.ParamName, values[i]); err != nil {
			return nil, err
		}
		jobs[i] = sim.Job{
			Name:    fmt.Sprintf("%s=%.4f", sweep.ParamName, values[i]),
			Options: sim.Options{Width: sweep.Width, Height: sweep.Height, Workers: sweep.Workers, Params: p},
			Config:  sweep.Run,
			Metrics: func() []sim.Metric {
				return []sim.Metric{
					metrics.NewEnergy(),
					metrics.NewCoverage(),
					metrics.NewStability(0.1*p.FlowIntensity + maxFlowSlack),
				}
			},
		}
	}

	runs, err := sim.NewEnsemble(sweep.Parallel).Run(ctx, jobs)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(runs))
	for i, r := range runs {
		results[i] = SweepResult{
			ParamValue: values[i],
			MeanEnergy: r.Metrics["energy"],
			Coverage:   r.Metrics["coverage"],
			Stability:  r.Metrics["stability"],
			Faults:     r.Faults,
		}
		dynamo.Logger().Info("sweep", "step", i+1, "of", len(runs), "param", sweep.ParamName, "value", values[i])
	}
	return results, nil
}

// MonteCarloConfig defines a randomized stability check: every trial draws
// all scalar parameters uniformly from their ranges.
type MonteCarloConfig struct {
	NumTrials     int
	Width, Height int
	Workers       int
	Run           sim.RunConfig
	Seed          int64
	Parallel      int
}

// MonteCarloResult holds the outcome of one trial.
type MonteCarloResult struct {
	TrialID int
	Params  params.Set
	Stable  bool // every frame finite, density in [0,1], flow within cap
	Faults  int
}

// RunMonteCarlo executes trials with random parameter sets.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	sets := make([]params.Set, cfg.NumTrials)
	jobs := make([]sim.Job, cfg.NumTrials)
	for trial := range jobs {
		p, err := RandomParams(rng)
		if err != nil {
			return nil, err
		}
		sets[trial] = p
		jobs[trial] = sim.Job{
			Name:    fmt.Sprintf("trial %d", trial),
			Options: sim.Options{Width: cfg.Width, Height: cfg.Height, Workers: cfg.Workers, Params: p},
			Config:  cfg.Run,
			Metrics: func() []sim.Metric {
				return []sim.Metric{metrics.NewStability(0.1*p.FlowIntensity + maxFlowSlack)}
			},
		}
	}

	runs, err := sim.NewEnsemble(cfg.Parallel).Run(ctx, jobs)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		results[i] = MonteCarloResult{
			TrialID: i,
			Params:  sets[i],
			Stable:  r.Metrics["stability"] == 1 && r.Faults == 0,
			Faults:  r.Faults,
		}
		if (i+1)%10 == 0 {
			dynamo.Logger().Info("monte carlo", "done", i+1, "of", len(runs))
		}
	}
	return results, nil
}

// RandomParams draws every scalar parameter uniformly from its range,
// starting from the defaults for colors and switches.
func RandomParams(rng *rand.Rand) (params.Set, error) {
	p := params.Defaults()
	if err := Randomize(&p, rng); err != nil {
		return params.Set{}, err
	}
	return p, nil
}

// Randomize draws each known parameter that c exposes uniformly from its
// range, in spec order so a seeded rng is reproducible.
func Randomize(c dynamo.Configurable, rng *rand.Rand) error {
	have := c.GetParams()
	for _, s := range params.Specs() {
		if _, ok := have[s.Name]; !ok {
			continue
		}
		if err := c.SetParam(s.Name, s.Min+rng.Float64()*(s.Max-s.Min)); err != nil {
			return fmt.Errorf("randomize %s: %w", s.Name, err)
		}
	}
	return nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
