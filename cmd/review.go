package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	sr "github.com/example/lingua/internal/spaced_repetition"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Record a graded recall of a word",
	Long: "Record a graded recall of a word. Quality: 1 = Again, 2 = Hard, 3 = Good, 4 = Easy.\n" +
		"Grades below 3 reset the word to a one-day interval.",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := requireUser(cmd)
		if err != nil {
			return err
		}
		wordID, _ := cmd.Flags().GetInt64("word")
		quality, _ := cmd.Flags().GetInt("quality")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		state, err := a.review.Submit(cmd.Context(), userID, wordID, quality)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: next review in %d day(s) on %s (easiness %.2f, repetitions %d)\n",
			sr.Quality(quality), state.IntervalDays, state.NextReviewDate.Format("2006-01-02"),
			state.EasinessFactor, state.Repetitions)
		return nil
	},
}

func init() {
	reviewCmd.Flags().Int64("user", 0, "Learner (Telegram user) ID")
	reviewCmd.Flags().Int64("word", 0, "Word ID")
	reviewCmd.Flags().Int("quality", 0, "Recall quality, 1-4")
}
