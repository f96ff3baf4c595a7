package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/mapsmith/roommapper/internal/appconfig"
	"github.com/mapsmith/roommapper/internal/oracle"
	"github.com/mapsmith/roommapper/internal/roomgraph/driver"
)

var (
	solveNumBaseRooms int
	solveLayerNum     int
	solveSAWorkers    int
	solveSeed         int64
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run the select/explore/reconstruct/guess loop against a live oracle",
	RunE:  runSolve,
}

func init() {
	solveCmd.Flags().IntVar(&solveNumBaseRooms, "rooms", 3, "hypothesised base room count R")
	solveCmd.Flags().IntVar(&solveLayerNum, "layers", 1, "layer count L (1, 2, or 3)")
	solveCmd.Flags().IntVar(&solveSAWorkers, "sa-workers", 1, "number of independent SA attempts to race per round")
	solveCmd.Flags().Int64Var(&solveSeed, "seed", 0, "RNG seed (0 picks a time-based seed)")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := appconfig.Load(envFile)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}
	log := cfg.NewLogger()

	seed := solveSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	client := oracle.New(cfg.BaseURL, cfg.TeamID, cfg.RequestTimeout)
	d := driver.New(client, log, rand.New(rand.NewSource(seed)))

	params := driver.Params{
		NumBaseRooms: solveNumBaseRooms,
		LayerNum:     solveLayerNum,
		SAWorkers:    solveSAWorkers,
		PlanLengthB:  driver.DefaultPlanLengthB(solveLayerNum),
	}

	log.Info().
		Int("rooms", params.NumBaseRooms).
		Int("layers", params.LayerNum).
		Int64("seed", seed).
		Msg("starting solve loop")

	result, err := d.RunUntilCorrect(cmd.Context(), cfg.ProblemName, params)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}

	log.Info().Int("rooms", len(result.Rooms)).Msg("oracle accepted the submitted map")
	return nil
}
