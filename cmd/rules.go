package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/nightgrid/captiond/internal/model"
	"github.com/nightgrid/captiond/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage extraction rules",
	Long:  "Commands for listing, creating, approving and deactivating regex extraction rules.",
}

// -- rules list --

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules with their stats",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		category, _ := cmd.Flags().GetString("category")
		all, _ := cmd.Flags().GetBool("all")
		limit, _ := cmd.Flags().GetInt("limit")

		list, err := st.ListRules(ctx, rules.RuleFilter{
			Category:        category,
			IncludeInactive: all,
			Limit:           limit,
		})
		if err != nil {
			return eris.Wrap(err, "rules list")
		}

		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No rules found.")
			return nil
		}

		formatRulesList(os.Stdout, list)
		return nil
	},
}

// -- rules add --

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a manual rule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		category, _ := cmd.Flags().GetString("category")
		pattern, _ := cmd.Flags().GetString("pattern")
		description, _ := cmd.Flags().GetString("description")
		priority, _ := cmd.Flags().GetInt("priority")

		rule, err := rules.CreateManualRule(ctx, st, category, pattern, description, priority)
		if err != nil {
			return eris.Wrap(err, "rules add")
		}

		fmt.Printf("Created rule %s (%s, priority %d)\n", rule.ID, rule.Category, rule.Priority)
		return nil
	},
}

// -- rules approve --

var rulesApproveCmd = &cobra.Command{
	Use:   "approve <rule-id>",
	Short: "Activate an inactive learned rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		rule, err := rules.ApproveRule(ctx, st, args[0])
		if err != nil {
			return eris.Wrap(err, "rules approve")
		}

		fmt.Printf("Rule %s is now active (%s: %s)\n", rule.ID, rule.Category, rule.Pattern)
		return nil
	},
}

// -- rules deactivate --

var rulesDeactivateCmd = &cobra.Command{
	Use:   "deactivate <rule-id>",
	Short: "Force-deactivate a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := rules.DeactivateRule(ctx, st, args[0]); err != nil {
			return eris.Wrap(err, "rules deactivate")
		}

		fmt.Printf("Rule %s deactivated\n", args[0])
		return nil
	},
}

func init() {
	rulesListCmd.Flags().String("category", "", "filter by category (date, time, venue, price, signup_url, ...)")
	rulesListCmd.Flags().Bool("all", false, "include inactive rules")
	rulesListCmd.Flags().Int("limit", 100, "max number of rules to display")

	rulesAddCmd.Flags().String("category", "", "rule category (required)")
	rulesAddCmd.Flags().String("pattern", "", "regex pattern, value in capture group 1 (required)")
	rulesAddCmd.Flags().String("description", "", "what the rule matches")
	rulesAddCmd.Flags().Int("priority", 100, "selection priority, lower runs first")
	_ = rulesAddCmd.MarkFlagRequired("category")
	_ = rulesAddCmd.MarkFlagRequired("pattern")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesApproveCmd)
	rulesCmd.AddCommand(rulesDeactivateCmd)
	rootCmd.AddCommand(rulesCmd)
}

// formatRulesList writes a tabular rule listing to w.
func formatRulesList(out io.Writer, list []model.Rule) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCATEGORY\tCONF\tOK\tFAIL\tPRIO\tSOURCE\tACTIVE\tPATTERN")
	_, _ = fmt.Fprintln(w, "--\t--------\t----\t--\t----\t----\t------\t------\t-------")

	for _, r := range list {
		pattern := r.Pattern
		if len(pattern) > 40 {
			pattern = pattern[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%d\t%d\t%s\t%t\t%s\n",
			truncateID(r.ID),
			r.Category,
			r.ConfidenceScore,
			r.SuccessCount,
			r.FailureCount,
			r.Priority,
			r.Source,
			r.IsActive,
			pattern,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
