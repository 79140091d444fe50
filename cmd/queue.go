package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List the words due for review, in study order",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := requireUser(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		words, err := a.review.Queue(cmd.Context(), userID, limit)
		if err != nil {
			return err
		}
		if len(words) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing is due.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWORD\tTRANSLATION")
		for _, word := range words {
			fmt.Fprintf(w, "%d\t%s\t%s\n", word.ID, word.Word, word.Translation)
		}
		return w.Flush()
	},
}

func init() {
	queueCmd.Flags().Int64("user", 0, "Learner (Telegram user) ID")
	queueCmd.Flags().Int("limit", 0, "Maximum number of words (0 = all due)")
}
