package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"watchlist-sentinel/internal/models"
	"watchlist-sentinel/internal/store"
)

func newRulesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage alert rules",
	}

	cmd.PersistentFlags().String("owner", "", "owner ID the operation is scoped to")
	cmd.MarkPersistentFlagRequired("owner")

	cmd.AddCommand(newRulesListCmd(app))
	cmd.AddCommand(newRulesAddCmd(app))
	cmd.AddCommand(newRulesEditCmd(app))
	cmd.AddCommand(newRulesRemoveCmd(app))

	return cmd
}

func newRulesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the owner's alert rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("owner")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			ruleStore, err := openStore(ctx, app)
			if err != nil {
				return err
			}
			defer ruleStore.Close()

			rules, err := ruleStore.ListRules(ctx, owner)
			if err != nil {
				return err
			}

			if len(rules) == 0 {
				fmt.Println("No alert rules.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSYMBOL\tCONDITION\tTHRESHOLD\tFREQUENCY\tLAST FIRED")
			for _, r := range rules {
				lastFired := "-"
				if r.LastTriggeredAt != nil {
					lastFired = r.LastTriggeredAt.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Name, r.Symbol, r.Condition, r.Threshold.StringFixed(2),
					r.Frequency, lastFired)
			}
			return w.Flush()
		},
	}
}

func newRulesAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add SYMBOL",
		Short: "Create an alert rule",
		Example: `  sentinel rules add AAPL --owner u1 --condition greater --threshold 150
  sentinel rules add TSLA --owner u1 --condition less --threshold 600 --frequency real_time`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			condition, _ := cmd.Flags().GetString("condition")
			thresholdStr, _ := cmd.Flags().GetString("threshold")
			frequency, _ := cmd.Flags().GetString("frequency")
			name, _ := cmd.Flags().GetString("name")
			company, _ := cmd.Flags().GetString("company")

			threshold, err := decimal.NewFromString(thresholdStr)
			if err != nil {
				return fmt.Errorf("invalid threshold %q: %w", thresholdStr, err)
			}

			rule := &models.AlertRule{
				OwnerID:   owner,
				Name:      name,
				Symbol:    args[0],
				Company:   company,
				Condition: models.Condition(condition),
				Threshold: threshold,
				Frequency: models.Frequency(frequency),
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			ruleStore, err := openStore(ctx, app)
			if err != nil {
				return err
			}
			defer ruleStore.Close()

			if err := ruleStore.CreateRule(ctx, rule); err != nil {
				return err
			}

			fmt.Printf("Created rule %s: %s %s %s (%s)\n",
				rule.ID, rule.Symbol, rule.Condition, rule.Threshold.StringFixed(2), rule.Frequency)
			return nil
		},
	}

	cmd.Flags().String("condition", "", "alert condition: greater or less")
	cmd.Flags().String("threshold", "", "price threshold")
	cmd.Flags().String("frequency", "", "once_per_day, once_per_hour, or real_time (default once_per_day)")
	cmd.Flags().String("name", "", "alert name")
	cmd.Flags().String("company", "", "company display name")
	cmd.MarkFlagRequired("condition")
	cmd.MarkFlagRequired("threshold")

	return cmd
}

func newRulesEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit RULE_ID",
		Short: "Edit an alert rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("owner")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			ruleStore, err := openStore(ctx, app)
			if err != nil {
				return err
			}
			defer ruleStore.Close()

			rule, err := findRule(ctx, ruleStore, owner, args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("condition") {
				condition, _ := cmd.Flags().GetString("condition")
				rule.Condition = models.Condition(condition)
			}
			if cmd.Flags().Changed("threshold") {
				thresholdStr, _ := cmd.Flags().GetString("threshold")
				threshold, err := decimal.NewFromString(thresholdStr)
				if err != nil {
					return fmt.Errorf("invalid threshold %q: %w", thresholdStr, err)
				}
				rule.Threshold = threshold
			}
			if cmd.Flags().Changed("frequency") {
				frequency, _ := cmd.Flags().GetString("frequency")
				rule.Frequency = models.Frequency(frequency)
			}
			if cmd.Flags().Changed("name") {
				name, _ := cmd.Flags().GetString("name")
				rule.Name = name
			}

			if err := ruleStore.UpdateRule(ctx, rule); err != nil {
				return err
			}

			fmt.Printf("Updated rule %s\n", rule.ID)
			return nil
		},
	}

	cmd.Flags().String("condition", "", "alert condition: greater or less")
	cmd.Flags().String("threshold", "", "price threshold")
	cmd.Flags().String("frequency", "", "once_per_day, once_per_hour, or real_time")
	cmd.Flags().String("name", "", "alert name")

	return cmd
}

func newRulesRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm RULE_ID",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete an alert rule",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("owner")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			ruleStore, err := openStore(ctx, app)
			if err != nil {
				return err
			}
			defer ruleStore.Close()

			if err := ruleStore.DeleteRule(ctx, owner, args[0]); err != nil {
				return err
			}

			fmt.Printf("Deleted rule %s\n", args[0])
			return nil
		},
	}
}

func findRule(ctx context.Context, ruleStore store.RuleStore, ownerID, ruleID string) (*models.AlertRule, error) {
	rules, err := ruleStore.ListRules(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		if rules[i].ID == ruleID {
			return &rules[i], nil
		}
	}
	return nil, fmt.Errorf("rule %s not found for owner %s", ruleID, ownerID)
}
