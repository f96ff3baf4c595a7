package cmd

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/mapsmith/roommapper/internal/roomgraph/anneal"
	"github.com/mapsmith/roommapper/internal/roomgraph/basemap"
	"github.com/mapsmith/roommapper/internal/roomgraph/dfs"
	"github.com/mapsmith/roommapper/internal/roomgraph/fullmap"
	"github.com/mapsmith/roommapper/internal/roomgraph/submission"
	"github.com/mapsmith/roommapper/internal/roomgraph/trace"
)

var (
	replayNumBaseRooms int
	replayLayerNum     int
	replaySeed         int64
)

// replayFixture is the saved plan/observation pair a `replay` run
// reconstructs from, with no oracle round-trip: exactly what /explore
// would have returned for the doors-only plan and its labelled twin.
type replayFixture struct {
	SimplePlan       string `json:"simplePlan"`
	SimpleObserved   []int  `json:"simpleObserved"`
	LabelledPlan     string `json:"labelledPlan"`
	LabelledObserved []int  `json:"labelledObserved"`
}

var replayCmd = &cobra.Command{
	Use:   "replay <fixture.json>",
	Short: "Run the SA+DFS core against a saved plan/observation fixture, without the network",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().IntVar(&replayNumBaseRooms, "rooms", 3, "hypothesised base room count R")
	replayCmd.Flags().IntVar(&replayLayerNum, "layers", 1, "layer count L (1, 2, or 3)")
	replayCmd.Flags().Int64Var(&replaySeed, "seed", 1, "RNG seed")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	var fx replayFixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("replay: parsing %s: %w", args[0], err)
	}

	doorsOnly, err := trace.ParseDoorsOnly(fx.SimplePlan)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	labelled, err := trace.Parse(fx.LabelledPlan)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	rng := rand.New(rand.NewSource(replaySeed))
	var stop atomic.Bool

	verify := func(base basemap.Map) (fullmap.FullMap, bool) {
		return dfs.New(base, labelled.Steps, fx.LabelledObserved, replayLayerNum).Solve()
	}

	solver := anneal.New(doorsOnly, fx.SimpleObserved, replayNumBaseRooms, rng)
	resolved, ok := solver.Run(rng, &stop, verify)
	if !ok {
		return fmt.Errorf("replay: no consistent map found for %s", args[0])
	}

	guessMap := submission.Build(resolved)
	encoded, err := json.MarshalIndent(guessMap, "", "  ")
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}
