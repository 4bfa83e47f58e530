// Package sim projects a theory forward offline: a deterministic trajectory
// at fixed levels, and Monte Carlo runs with jittered frame times.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/bignum"
	"github.com/xtding233/binomial-theory/internal/host"
	"github.com/xtding233/binomial-theory/internal/theory"
)

var ErrInvalidParams = errors.New("invalid simulation params")

// maxFrames bounds the frames of one call, summed over all of its trials.
const maxFrames = 1_000_000

// ctxCheckEvery is how many frames run between cancellation checks.
const ctxCheckEvery = 4096

// TrialGoal selects what the simulation measures per trial.
type TrialGoal string

const (
	// log10(1+ρ) once Duration has elapsed.
	GoalFinalLog10 TrialGoal = "final_log10"
	// Simulated seconds until log10(1+ρ) reaches Target; Duration if it never does.
	GoalTimeToTarget TrialGoal = "time_to_target"
)

// Params describes one projection.
type Params struct {
	Config     theory.Config
	Upgrades   map[theory.UpgradeID]int
	Milestones map[theory.MilestoneKey]int
	// Multiplier is the publication bonus; zero means none.
	Multiplier decimal.Decimal

	Duration float64 // simulated seconds
	Frame    float64 // seconds per engine frame
	Speed    float64 // tick speed multiplier; <= 0 means 1
	// Jitter spreads each frame uniformly over Frame·[1-Jitter, 1+Jitter].
	Jitter float64
	Target float64 // log10(1+ρ) for GoalTimeToTarget
}

func (p Params) validate() error {
	var errs []string
	if !(p.Duration > 0) || math.IsInf(p.Duration, 1) {
		errs = append(errs, "duration must be a finite number of seconds > 0")
	}
	if !(p.Frame > 0) || math.IsInf(p.Frame, 1) {
		errs = append(errs, "frame must be > 0")
	} else if p.frames() > maxFrames {
		errs = append(errs, fmt.Sprintf("duration/frame exceeds %d frames", maxFrames))
	}
	if math.IsNaN(p.Speed) || math.IsInf(p.Speed, 0) {
		errs = append(errs, "speed must be finite")
	}
	if !(p.Jitter >= 0 && p.Jitter < 1) {
		errs = append(errs, "jitter must be in [0,1)")
	}
	if p.Multiplier.Sign() < 0 {
		errs = append(errs, "multiplier must be >= 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidParams, errs)
	}
	return nil
}

// frames is the worst-case frame count of one trial; jitter can shorten
// every frame to Frame·(1-Jitter).
func (p Params) frames() float64 {
	shortest := p.Frame
	if p.Jitter > 0 && p.Jitter < 1 {
		shortest *= 1 - p.Jitter
	}
	return math.Ceil(p.Duration / shortest)
}

func (p Params) speed() float64 {
	if p.Speed <= 0 {
		return 1
	}
	return p.Speed
}

// build wires a theory onto a fresh in-memory host at the requested levels.
func build(p Params) (*host.Registry, *theory.Theory, error) {
	r := host.NewRegistry()
	th, err := theory.New(p.Config, r)
	if err != nil {
		return nil, nil, err
	}
	for id, lvl := range p.Upgrades {
		if err := r.SetUpgradeLevel(int(id), lvl); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}
	for _, k := range theory.MilestoneKeys {
		lvl, ok := p.Milestones[k]
		if !ok {
			continue
		}
		if err := r.SetMilestoneLevel(theory.MilestoneID(k), lvl); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}
	if p.Multiplier.Sign() > 0 {
		r.SetPublicationMultiplier(p.Multiplier)
	}
	return r, th, nil
}

// simulateOne returns the primary metric for one trial depending on the goal.
func simulateOne(ctx context.Context, p Params, goal TrialGoal, rng RandomSource) (float64, error) {
	_, th, err := build(p)
	if err != nil {
		return 0, err
	}
	speed := p.speed()
	elapsed := 0.0
	for n := 1; elapsed < p.Duration; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		frame := jitterFrame(p.Frame, p.Jitter, rng)
		if elapsed+frame > p.Duration {
			frame = p.Duration - elapsed
		}
		th.Tick(frame, speed)
		elapsed += frame
		if goal == GoalTimeToTarget && th.GraphValue() >= p.Target {
			return elapsed, nil
		}
	}
	switch goal {
	case GoalTimeToTarget:
		return p.Duration, nil
	case GoalFinalLog10:
		return th.GraphValue(), nil
	}
	return 0, fmt.Errorf("%w: unknown goal %q", ErrInvalidParams, goal)
}

// RunMonteCarlo repeats trials and returns summary stats.
// goal determines what metric is recorded per trial. It stops with ctx.Err()
// once ctx is done.
func RunMonteCarlo(ctx context.Context, p Params, goal TrialGoal, trials int, rng RandomSource) (Stats, error) {
	if trials <= 0 {
		return Stats{}, nil
	}
	if err := p.validate(); err != nil {
		return Stats{}, err
	}
	if total := p.frames() * float64(trials); total > maxFrames {
		return Stats{}, fmt.Errorf("%w: %d trials of %.0f frames exceed %d frames", ErrInvalidParams, trials, p.frames(), maxFrames)
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	samples := make([]float64, trials)
	for i := 0; i < trials; i++ {
		if err := ctx.Err(); err != nil {
			return Stats{}, err
		}
		v, err := simulateOne(ctx, p, goal, rng)
		if err != nil {
			return Stats{}, err
		}
		samples[i] = v
	}
	return calcStats(samples), nil
}

// Point is one sample of a projected trajectory.
type Point struct {
	Time     float64 `json:"time"`
	Log10Rho float64 `json:"log10_rho"` // log10(1+ρ)
	Log10Tau float64 `json:"log10_tau"` // log10(1+τ)
}

// Projection is a deterministic trajectory plus the per-interval growth of
// log10(1+ρ).
type Projection struct {
	Points  []Point `json:"points"`
	Growth  Stats   `json:"growth"`
	Final   string  `json:"final"` // exact ρ at the end
	Tau     string  `json:"tau"`
	Formula string  `json:"formula"`
}

// Project runs p without jitter, sampling every interval seconds. It stops
// with ctx.Err() once ctx is done.
func Project(ctx context.Context, p Params, interval float64) (Projection, error) {
	if err := p.validate(); err != nil {
		return Projection{}, err
	}
	if !(interval >= p.Frame) || math.IsInf(interval, 1) {
		return Projection{}, fmt.Errorf("%w: sample interval must be >= frame", ErrInvalidParams)
	}
	r, th, err := build(p)
	if err != nil {
		return Projection{}, err
	}

	sample := func(at float64) Point {
		return Point{
			Time:     at,
			Log10Rho: th.GraphValue(),
			Log10Tau: bignum.Log10(bignum.Add(bignum.One, th.Tau())),
		}
	}
	points := []Point{sample(0)}
	speed := p.speed()
	elapsed, next := 0.0, interval
	for n := 1; elapsed < p.Duration; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Projection{}, err
			}
		}
		frame := math.Min(p.Frame, p.Duration-elapsed)
		th.Tick(frame, speed)
		elapsed += frame
		if elapsed >= next || elapsed >= p.Duration {
			points = append(points, sample(elapsed))
			next += interval
		}
	}

	growth := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		growth = append(growth, points[i].Log10Rho-points[i-1].Log10Rho)
	}
	return Projection{
		Points:  points,
		Growth:  calcStats(growth),
		Final:   bignum.Encode(r.Currency().Value()),
		Tau:     bignum.Format(th.Tau(), 3),
		Formula: th.PrimaryEquation(),
	}, nil
}
