package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := requireUser(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.review.Dashboard(cmd.Context(), userID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		}

		fmt.Fprintf(out, "Words:          %d\n", d.Total)
		fmt.Fprintf(out, "Due today:      %d\n", d.DueToday)
		fmt.Fprintf(out, "Due soon:       %d\n", d.DueSoon)
		fmt.Fprintf(out, "Mastered:       %d\n", d.Mastered)
		fmt.Fprintf(out, "Streak:         %d (longest %d)\n", d.CurrentStreak, d.LongestStreak)
		fmt.Fprintf(out, "Total reviews:  %d\n", d.TotalReviews)
		return nil
	},
}

func init() {
	statsCmd.Flags().Int64("user", 0, "Learner (Telegram user) ID")
	statsCmd.Flags().Bool("json", false, "Print as JSON")
}
