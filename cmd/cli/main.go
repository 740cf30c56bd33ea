package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/memehub/memehub/internal/badges"
	"github.com/memehub/memehub/internal/database"
	"github.com/memehub/memehub/internal/leaderboard"
	"github.com/memehub/memehub/internal/logger"
	"github.com/memehub/memehub/internal/models"
	"github.com/spf13/cobra"
)

var output string = "text" // "text" or "json"

var rootCmd = &cobra.Command{
	Use:   "memehub",
	Short: "MemeHub admin CLI - inspect and manage the MemeHub database",
	Long: `MemeHub admin CLI provides direct database access for operators.
Inspect leaderboards and creator stats, or grant badges by hand.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using system environment variables")
		}
		logger.InitializeForTest()
		if err := database.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to connect to database: %v\n", err)
			os.Exit(1)
		}
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard [24h|week|month|all]",
	Short: "Print the current leaderboard for a time frame",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		frame := leaderboard.TimeFrameWeek
		if len(args) > 0 {
			frame = leaderboard.ParseTimeFrame(args[0], leaderboard.TimeFrameWeek)
		}
		limit, _ := cmd.Flags().GetInt("limit")

		boards := leaderboard.NewAggregator(database.DB, badges.NewEvaluator(database.DB))
		entries, err := boards.Compute(context.Background(), frame, limit)
		if err != nil {
			return err
		}

		if output == "json" {
			return json.NewEncoder(os.Stdout).Encode(entries)
		}
		fmt.Printf("Leaderboard (%s)\n", frame)
		for _, e := range entries {
			fmt.Printf("%3d. %-20s score=%-6d up=%-5d down=%-5d memes=%d\n",
				e.Rank, e.Username, e.TotalScore, e.TotalUpvotes, e.TotalDownvotes, e.TotalMemes)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Print lifetime stats for a creator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boards := leaderboard.NewAggregator(database.DB, badges.NewEvaluator(database.DB))
		stats, err := boards.Stats(context.Background(), args[0])
		if err != nil {
			return err
		}

		if output == "json" {
			return json.NewEncoder(os.Stdout).Encode(stats)
		}
		fmt.Printf("memes:     %d\n", stats.TotalMemes)
		fmt.Printf("upvotes:   %d\n", stats.TotalUpvotes)
		fmt.Printf("downvotes: %d\n", stats.TotalDownvotes)
		fmt.Printf("score:     %d\n", stats.TotalScore)
		fmt.Printf("views:     %d\n", stats.TotalViews)
		fmt.Printf("comments:  %d\n", stats.TotalComments)
		fmt.Printf("avg score: %.2f\n", stats.AverageScore)
		return nil
	},
}

var grantBadgeCmd = &cobra.Command{
	Use:   "grant-badge <user-id> <badge>",
	Short: "Grant a badge to a user",
	Long: `Grant a badge to a user by hand. Granting a badge the user already
holds is a no-op. Valid badges: first_upload, viral_post, comment_king,
prolific_creator, weekly_winner.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		evaluator := badges.NewEvaluator(database.DB)
		if err := evaluator.Grant(context.Background(), args[0], models.Badge(args[1])); err != nil {
			return err
		}
		fmt.Printf("Granted %s to %s\n", args[1], args[0])
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user <username>",
	Short: "Look up a user by username",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var user models.User
		if err := database.DB.First(&user, "LOWER(username) = LOWER(?)", args[0]).Error; err != nil {
			return fmt.Errorf("user %q: %w", args[0], err)
		}

		if output == "json" {
			return json.NewEncoder(os.Stdout).Encode(user.Public())
		}
		fmt.Printf("id:       %s\n", user.ID)
		fmt.Printf("username: %s\n", user.Username)
		fmt.Printf("email:    %s\n", user.Email)
		fmt.Printf("badges:   %v\n", user.Badges)
		fmt.Printf("joined:   %s\n", user.CreatedAt.Format("2006-01-02"))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")
	leaderboardCmd.Flags().Int("limit", leaderboard.DefaultLimit, "Number of entries to show")

	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(grantBadgeCmd)
	rootCmd.AddCommand(userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
