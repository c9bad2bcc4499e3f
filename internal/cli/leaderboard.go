package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"text/tabwriter"
	"time"

	"gdpr-quiz-service/internal/app"
	"gdpr-quiz-service/internal/config"
	"gdpr-quiz-service/internal/domain"
	"gdpr-quiz-service/internal/ranking"
	"github.com/spf13/cobra"
)

// NewScoreCmd computes a calculated score offline.
func NewScoreCmd(configPath *string) *cobra.Command {
	var (
		correct, total int
		elapsed        float64
		difficulty     string
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the calculated score and tier of an attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			calculated, err := ranking.Compute(correct, total, elapsed, domain.Difficulty(difficulty))
			if err != nil {
				return err
			}
			tier := ranking.TierTable(cfg.Leaderboard.Tiers).For(calculated)
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", calculated, tier.Label)
			return nil
		},
	}
	cmd.Flags().IntVar(&correct, "correct", 0, "number of correct answers")
	cmd.Flags().IntVar(&total, "total", 0, "number of questions")
	cmd.Flags().Float64Var(&elapsed, "elapsed", 0, "total seconds taken")
	cmd.Flags().StringVar(&difficulty, "difficulty", string(domain.DifficultyMixed), "easy|medium|hard|mixed")
	return cmd
}

// NewSeedCmd replaces the stored rankings with generated demo data.
func NewSeedCmd(configPath *string) *cobra.Command {
	var (
		regional, global int
		seed             int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the leaderboards with generated test data",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := requireStoredLeaderboard(cmd, rt.cfg); err != nil {
				return err
			}

			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			if err := rt.leaderboard.Seed(cmd.Context(), regional, global, rand.New(rand.NewSource(seed)), true); err != nil {
				return err
			}
			return printStandings(cmd.OutOrStdout(), rt.leaderboard, domain.DifficultyAll, false)
		},
	}
	cmd.Flags().IntVar(&regional, "regional", 8, "regional entries to generate")
	cmd.Flags().IntVar(&global, "global", 10, "global entries, including the two best regional ones")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

// NewResetCmd clears both leaderboards.
func NewResetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the regional and global leaderboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := requireStoredLeaderboard(cmd, rt.cfg); err != nil {
				return err
			}
			if err := rt.leaderboard.Reset(cmd.Context(), true); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "leaderboards cleared")
			return nil
		},
	}
}

// NewStandingsCmd prints the stored leaderboards.
func NewStandingsCmd(configPath *string) *cobra.Command {
	var (
		difficulty string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Print the leaderboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			return printStandings(cmd.OutOrStdout(), rt.leaderboard, difficulty, asJSON)
		},
	}
	cmd.Flags().StringVar(&difficulty, "difficulty", domain.DifficultyAll, "all|easy|medium|hard|mixed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// requireStoredLeaderboard refuses commands whose writes would vanish with
// the process.
func requireStoredLeaderboard(cmd *cobra.Command, cfg config.Config) error {
	if cfg.LeaderboardBackend() == "memory" {
		return fmt.Errorf("%s: leaderboard storage is memory, nothing would be kept; configure leaderboard.storage, REDIS_ADDR or POSTGRES_URL", cmd.Name())
	}
	return nil
}

func printStandings(w io.Writer, leaderboard *app.LeaderboardService, difficulty string, asJSON bool) error {
	standings, err := leaderboard.Standings(difficulty)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(standings)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, section := range []struct {
		title   string
		entries []app.RankedEntry
	}{
		{"REGIONAL", standings.Regional},
		{"GLOBAL", standings.Global},
	} {
		fmt.Fprintf(tw, "%s (%s)\n", section.title, standings.Difficulty)
		fmt.Fprintln(tw, "RANK\tNAME\tCOUNTRY\tSCORE\tCALCULATED\tDIFFICULTY\tTIER")
		for _, e := range section.entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%d\t%s\t%s\n",
				e.Rank, e.Name, e.Country, e.Score, e.MaxScore, e.CalculatedScore, e.Difficulty, e.Tier.Label)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
