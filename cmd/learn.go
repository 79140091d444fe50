package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/lingua/pkg/models"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Add a topic's words to a learner's study list",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := requireUser(cmd)
		if err != nil {
			return err
		}
		topicArg, _ := cmd.Flags().GetString("topic")
		if topicArg == "" {
			return errors.New("--topic is required")
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		var topic *models.Topic
		if id, convErr := strconv.ParseInt(topicArg, 10, 64); convErr == nil {
			topic, err = a.topics.GetByID(ctx, id)
		} else {
			topic, err = a.topics.GetByName(ctx, topicArg)
		}
		if err != nil {
			return err
		}

		if err := a.ensureUser(ctx, userID); err != nil {
			return err
		}
		n, err := a.review.AddTopic(ctx, userID, topic.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d words from %q\n", n, topic.Name)
		return nil
	},
}

func init() {
	learnCmd.Flags().Int64("user", 0, "Learner (Telegram user) ID")
	learnCmd.Flags().String("topic", "", "Topic ID or name")
}
