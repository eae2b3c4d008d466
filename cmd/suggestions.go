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

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "Review pattern suggestions",
	Long:  "Commands for listing, approving and rejecting pattern suggestions emitted when the oracle extracts a value no rule matched.",
}

// -- suggestions list --

var suggestionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pattern suggestions",
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

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		list, err := st.ListSuggestions(ctx, model.SuggestionStatus(status), limit)
		if err != nil {
			return eris.Wrap(err, "suggestions list")
		}

		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No suggestions found.")
			return nil
		}

		formatSuggestionsList(os.Stdout, list)
		return nil
	},
}

// -- suggestions approve --

var suggestionsApproveCmd = &cobra.Command{
	Use:   "approve <suggestion-id>",
	Short: "Convert a pending suggestion into a learned rule",
	Long:  "Creates an inactive learned rule from the suggestion using the pattern you supply. Activate it afterwards with 'rules approve'.",
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

		pattern, _ := cmd.Flags().GetString("pattern")
		priority, _ := cmd.Flags().GetInt("priority")

		rule, err := rules.ApproveSuggestion(ctx, st, args[0], pattern, priority)
		if err != nil {
			return eris.Wrap(err, "suggestions approve")
		}

		fmt.Printf("Created learned rule %s (%s, inactive)\n", rule.ID, rule.Category)
		fmt.Printf("Activate it with: captiond rules approve %s\n", rule.ID)
		return nil
	},
}

// -- suggestions reject --

var suggestionsRejectCmd = &cobra.Command{
	Use:   "reject <suggestion-id>",
	Short: "Reject a pending suggestion",
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

		if err := rules.RejectSuggestion(ctx, st, args[0]); err != nil {
			return eris.Wrap(err, "suggestions reject")
		}

		fmt.Printf("Suggestion %s rejected\n", args[0])
		return nil
	},
}

func init() {
	suggestionsListCmd.Flags().String("status", "pending", "filter by status (pending, approved, rejected)")
	suggestionsListCmd.Flags().Int("limit", 50, "max number of suggestions to display")

	suggestionsApproveCmd.Flags().String("pattern", "", "regex pattern for the learned rule (required)")
	suggestionsApproveCmd.Flags().Int("priority", 100, "selection priority, lower runs first")
	_ = suggestionsApproveCmd.MarkFlagRequired("pattern")

	suggestionsCmd.AddCommand(suggestionsListCmd)
	suggestionsCmd.AddCommand(suggestionsApproveCmd)
	suggestionsCmd.AddCommand(suggestionsRejectCmd)
	rootCmd.AddCommand(suggestionsCmd)
}

// formatSuggestionsList writes a tabular suggestion listing to w.
func formatSuggestionsList(out io.Writer, list []model.PatternSuggestion) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCATEGORY\tVALUE\tATTEMPTS\tSTATUS\tSAMPLE")
	_, _ = fmt.Fprintln(w, "--\t--------\t-----\t--------\t------\t------")

	for _, sg := range list {
		sample := sg.SampleText
		if len(sample) > 40 {
			sample = sample[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(sg.ID),
			sg.Category,
			sg.ExpectedValue,
			sg.AttemptCount,
			sg.Status,
			sample,
		)
	}
	_ = w.Flush()
}
