// Package driver orchestrates one full reconstruction attempt: generate a
// random doors-only and labelled plan pair, explore it against the oracle,
// hand the doors-only trace to a fan-out of SA attempts (internal/workerpool)
// whose cost-0 hits are verified by the DFS layer solver, and submit the
// resulting map via /guess. It reproduces main.rs's select->explore->SA
// (with DFS verification)->guess->retry loop, generalized from a single
// hard-coded three-room scenario to the R/L the caller supplies.
package driver

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mapsmith/roommapper/internal/oracle"
	"github.com/mapsmith/roommapper/internal/roomgraph"
	"github.com/mapsmith/roommapper/internal/roomgraph/anneal"
	"github.com/mapsmith/roommapper/internal/roomgraph/basemap"
	"github.com/mapsmith/roommapper/internal/roomgraph/dfs"
	"github.com/mapsmith/roommapper/internal/roomgraph/errs"
	"github.com/mapsmith/roommapper/internal/roomgraph/fullmap"
	"github.com/mapsmith/roommapper/internal/roomgraph/submission"
	"github.com/mapsmith/roommapper/internal/roomgraph/trace"
	"github.com/mapsmith/roommapper/internal/workerpool"
)

// doorAlphabet is every digit a plan step may press; random plans are drawn
// uniformly from it, matching main.rs's gen_random_string("012345", ...).
const doorAlphabet = "012345"

// Params bounds one attempt's search: the hypothesised base-room count R,
// the layer count L, the number of parallel SA workers to race, and the
// plan-length multiplier B (main.rs uses 18 for L<=2 and 6 for L==3).
type Params struct {
	NumBaseRooms int
	LayerNum     int
	SAWorkers    int
	PlanLengthB  int
}

// DefaultPlanLengthB returns main.rs's B heuristic: 6 once layers exceed 2,
// 18 otherwise — deeper layer search gets a shorter plan per attempt to
// keep /explore's query budget bounded.
func DefaultPlanLengthB(layerNum int) int {
	if layerNum > 2 {
		return 6
	}
	return 18
}

// Driver runs attempts against one oracle.Client, logging each stage.
type Driver struct {
	client *oracle.Client
	log    zerolog.Logger
	rng    *rand.Rand
}

// New builds a Driver. rng seeds both plan generation and every SA worker
// (each worker reseeds its own *rand.Rand derived from it, so attempts
// stay reproducible given a fixed seed).
func New(client *oracle.Client, log zerolog.Logger, rng *rand.Rand) *Driver {
	return &Driver{client: client, log: log, rng: rng}
}

// RunUntilCorrect repeats Attempt against problemName until the oracle
// accepts a guess, or ctx is cancelled. It returns the accepted submission.
func (d *Driver) RunUntilCorrect(ctx context.Context, problemName string, params Params) (submission.Map, error) {
	for {
		if err := ctx.Err(); err != nil {
			return submission.Map{}, err
		}

		result, err := d.Attempt(ctx, problemName, params)
		if err != nil {
			d.log.Warn().Err(err).Msg("attempt failed, retrying")
			continue
		}
		return result, nil
	}
}

// Attempt runs exactly one select->explore->SA/DFS->guess cycle. It
// returns errs.ErrGuessIncorrect if the oracle rejects the submitted map —
// the caller decides whether to retry.
func (d *Driver) Attempt(ctx context.Context, problemName string, params Params) (submission.Map, error) {
	attemptID := uuid.New()
	log := d.log.With().Str("attempt_id", attemptID.String()).Logger()

	if _, err := d.client.Select(ctx, problemName); err != nil {
		return submission.Map{}, fmt.Errorf("driver: Attempt: select: %w", err)
	}

	planLength := params.NumBaseRooms * params.LayerNum * params.PlanLengthB
	simplePlan := randomString(doorAlphabet, planLength, d.rng)
	labelledPlan := interleaveRandomLabels(simplePlan, d.rng)

	log.Info().Str("simple_plan", simplePlan).Msg("exploring")
	exploreResp, err := d.client.Explore(ctx, []string{simplePlan, labelledPlan})
	if err != nil {
		return submission.Map{}, fmt.Errorf("driver: Attempt: explore: %w", err)
	}
	if len(exploreResp.Results) != 2 {
		return submission.Map{}, fmt.Errorf("driver: Attempt: explore returned %d result vectors, want 2", len(exploreResp.Results))
	}
	simpleObserved := exploreResp.Results[0]
	labelledObserved := exploreResp.Results[1]

	doorsOnly, err := trace.ParseDoorsOnly(simplePlan)
	if err != nil {
		return submission.Map{}, fmt.Errorf("driver: Attempt: %w", err)
	}
	labelled, err := trace.Parse(labelledPlan)
	if err != nil {
		return submission.Map{}, fmt.Errorf("driver: Attempt: %w", err)
	}

	resolved, err := d.solveBaseAndLayers(ctx, log, doorsOnly, simpleObserved, labelled, labelledObserved, params)
	if err != nil {
		return submission.Map{}, err
	}

	guessMap := submission.Build(resolved)
	log.Info().Int("num_rooms", resolved.NumRooms).Msg("submitting guess")
	guessResp, err := d.client.Guess(ctx, guessMap)
	if err != nil {
		return submission.Map{}, fmt.Errorf("driver: Attempt: guess: %w", err)
	}
	if !guessResp.Correct {
		return submission.Map{}, errs.ErrGuessIncorrect
	}
	return guessMap, nil
}

// solveBaseAndLayers fans out SAWorkers independent SA attempts; each
// cost-0 hit is verified by a fresh dfs.Solver before being accepted.
func (d *Driver) solveBaseAndLayers(
	ctx context.Context,
	log zerolog.Logger,
	doorsOnly trace.DoorsOnlyPlan,
	simpleObserved []int,
	labelled trace.LabelledPlan,
	labelledObserved []int,
	params Params,
) (fullmap.FullMap, error) {
	verify := func(base basemap.Map) (fullmap.FullMap, bool) {
		solver := dfs.New(base, labelled.Steps, labelledObserved, params.LayerNum)
		resolved, ok := solver.Solve()
		if !ok {
			log.Debug().Msg("dfs rejected SA cost-0 hit, spurious base map")
		}
		return resolved, ok
	}

	workers := params.SAWorkers
	if workers <= 0 {
		workers = 1
	}

	baseSeed := d.rng.Int63()
	attempt := func(workerID int, stop *atomic.Bool) (fullmap.FullMap, bool) {
		workerRNG := rand.New(rand.NewSource(baseSeed + int64(workerID)))
		solver := anneal.New(doorsOnly, simpleObserved, params.NumBaseRooms, workerRNG)
		resolved, ok := solver.Run(workerRNG, stop, verify)
		if ok {
			log.Info().Int("worker_id", workerID).Msg("sa converged")
		}
		return resolved, ok
	}

	resolved, err := workerpool.RunFirstSuccess(ctx, workers, attempt)
	if err != nil {
		return fullmap.FullMap{}, fmt.Errorf("driver: solveBaseAndLayers: %w", err)
	}
	return resolved, nil
}

func randomString(alphabet string, length int, rng *rand.Rand) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(buf)
}

// interleaveRandomLabels prefixes each door digit in simplePlan with a
// random "[k]" label write, matching main.rs's plan_with_labels construction.
func interleaveRandomLabels(simplePlan string, rng *rand.Rand) string {
	var b []byte
	for _, c := range simplePlan {
		b = append(b, '[')
		b = append(b, []byte(strconv.Itoa(rng.Intn(roomgraph.NumLabels)))...)
		b = append(b, ']')
		b = append(b, byte(c))
	}
	return string(b)
}
