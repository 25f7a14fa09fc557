package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/fitquest/internal/game/quest"
	"github.com/cory-johannsen/fitquest/internal/game/stats"
)

func newEligibleCmd() *cobra.Command {
	var (
		block      stats.Block
		req        quest.Requirements
		templateID string
		contentDir string
	)
	cmd := &cobra.Command{
		Use:   "eligible",
		Short: "Check a stat block against quest requirements",
		Long: `Checks whether a stat block meets a quest's minimum stats. Requirements come
either from the --min-* flags or from a catalog template named by --quest.
Exits 1 when the stats are not eligible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if templateID != "" {
				if cmd.Flags().Changed("min-strength") || cmd.Flags().Changed("min-agility") ||
					cmd.Flags().Changed("min-endurance") || cmd.Flags().Changed("min-intelligence") {
					return fmt.Errorf("--quest cannot be combined with --min-* flags")
				}
				t, err := lookupTemplate(contentDir, templateID)
				if err != nil {
					return err
				}
				req = t.Requirements
			}
			if err := req.Validate(); err != nil {
				return err
			}
			if !quest.IsEligible(block, req) {
				fmt.Fprintln(cmd.OutOrStdout(), "not eligible")
				return errNotEligible
			}
			fmt.Fprintln(cmd.OutOrStdout(), "eligible")
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&block.Strength, "strength", 0, "player strength")
	f.IntVar(&block.Agility, "agility", 0, "player agility")
	f.IntVar(&block.Endurance, "endurance", 0, "player endurance")
	f.IntVar(&block.Intelligence, "intelligence", 0, "player intelligence")
	f.IntVar(&req.MinStrength, "min-strength", 0, "required strength")
	f.IntVar(&req.MinAgility, "min-agility", 0, "required agility")
	f.IntVar(&req.MinEndurance, "min-endurance", 0, "required endurance")
	f.IntVar(&req.MinIntelligence, "min-intelligence", 0, "required intelligence")
	f.StringVar(&templateID, "quest", "", "catalog template id to take requirements from")
	f.StringVar(&contentDir, "content", "content/quests", "quest catalog directory used with --quest")
	return cmd
}

func lookupTemplate(dir, id string) (*quest.Template, error) {
	templates, err := quest.LoadTemplates(dir)
	if err != nil {
		return nil, err
	}
	catalog, err := quest.NewCatalog(templates)
	if err != nil {
		return nil, err
	}
	t, ok := catalog.Get(id)
	if !ok {
		return nil, fmt.Errorf("quest template %q not found in %s", id, dir)
	}
	return t, nil
}
