package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nightgrid/captiond/internal/model"
)

var (
	extractCaption  string
	extractPostID   string
	extractHint     string
	extractPostedAt string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract event facts from one caption",
	Long:  "Runs the rule engine and the oracle concurrently on a single caption and prints the merged consensus result as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		engine, err := initEngine(st)
		if err != nil {
			return err
		}
		if engine == nil {
			return eris.New("extract requires an Anthropic API key (CAPTIOND_ANTHROPIC_KEY)")
		}

		postedAt := time.Now().UTC()
		if extractPostedAt != "" {
			postedAt, err = time.Parse(time.RFC3339, extractPostedAt)
			if err != nil {
				return eris.Wrap(err, "parse --posted-at")
			}
		}

		postID := extractPostID
		if postID == "" {
			postID = uuid.New().String()
		}

		post := model.Post{
			ID:           postID,
			Caption:      extractCaption,
			LocationHint: extractHint,
			PostedAt:     postedAt,
		}

		merged, err := engine.Extract(ctx, post)
		if err != nil {
			return eris.Wrap(err, "extract")
		}

		zap.L().Info("extraction complete",
			zap.String("post_id", post.ID),
			zap.String("overall_source", string(merged.OverallSource)),
			zap.Int("conflicts", len(merged.Conflicts)),
			zap.Float64("confidence", merged.Confidence),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(merged)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractCaption, "caption", "", "caption text (required)")
	extractCmd.Flags().StringVar(&extractPostID, "post-id", "", "post identifier (random UUID if omitted)")
	extractCmd.Flags().StringVar(&extractHint, "location-hint", "", "known venue for the posting account")
	extractCmd.Flags().StringVar(&extractPostedAt, "posted-at", "", "post timestamp, RFC3339 (anchors relative dates; defaults to now)")
	_ = extractCmd.MarkFlagRequired("caption")
	rootCmd.AddCommand(extractCmd)
}
