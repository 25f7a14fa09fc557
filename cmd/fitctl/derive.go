package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/fitquest/internal/game/player"
	"github.com/cory-johannsen/fitquest/internal/game/stats"
)

func newDeriveCmd() *cobra.Command {
	var q stats.Questionnaire
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive stats, level, and rank from questionnaire answers",
		Example: `  fitctl derive --push-ups 25 --squats 45 --crunches 15 --running-minutes 35 \
    --agile-sports --motivation`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := player.ValidateQuestionnaire(q); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats.Derive(q))
		},
	}
	addQuestionnaireFlags(cmd, &q)
	return cmd
}

func addQuestionnaireFlags(cmd *cobra.Command, q *stats.Questionnaire) {
	f := cmd.Flags()
	f.IntVar(&q.PushUps, "push-ups", 0, "push-ups in one set")
	f.IntVar(&q.Squats, "squats", 0, "squats in one set")
	f.IntVar(&q.Crunches, "crunches", 0, "crunches in one set")
	f.Float64Var(&q.RunningMinutes, "running-minutes", 0, "minutes of continuous running")
	f.BoolVar(&q.IsSmoker, "smoker", false, "player smokes")
	f.BoolVar(&q.DoesAgileSports, "agile-sports", false, "player does agility sports")
	f.BoolVar(&q.HasFastMovements, "fast-movements", false, "player has fast reflexes")
	f.BoolVar(&q.HasMotivation, "motivation", false, "player is motivated")
	f.BoolVar(&q.ExperiencesFatigue, "fatigue", false, "player tires quickly")
}
