package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightgrid/captiond/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"extract", "rules", "suggestions", "migrate", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "captiond", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestExtractCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"caption", "post-id", "location-hint", "posted-at"} {
		flag := extractCmd.Flags().Lookup(flagName)
		require.NotNil(t, flag, "extract should have --%s flag", flagName)
	}
}

func TestRulesCommand_HasSubcommands(t *testing.T) {
	cmds := rulesCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"list", "add", "approve", "deactivate"}
	for _, name := range expected {
		assert.True(t, names[name], "rules should have subcommand %q", name)
	}
}

func TestSuggestionsCommand_HasSubcommands(t *testing.T) {
	cmds := suggestionsCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"list", "approve", "reject"}
	for _, name := range expected {
		assert.True(t, names[name], "suggestions should have subcommand %q", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestMigrateCommand_Flags(t *testing.T) {
	flag := migrateCmd.Flags().Lookup("seed")
	require.NotNil(t, flag, "migrate command should have --seed flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestFormatRulesList(t *testing.T) {
	var buf bytes.Buffer
	formatRulesList(&buf, []model.Rule{
		{
			ID:              "aaaabbbb-cccc-dddd-eeee-ffff00001111",
			Category:        model.CategoryPrice,
			Pattern:         `(?i)₱\s*(\d+)`,
			ConfidenceScore: 0.62,
			SuccessCount:    12,
			FailureCount:    3,
			Priority:        10,
			Source:          model.RuleSourceDefault,
			IsActive:        true,
			CreatedAt:       time.Now(),
		},
	})

	out := buf.String()
	assert.Contains(t, out, "aaaabbbb")
	assert.NotContains(t, out, "cccc-dddd", "IDs are truncated for display")
	assert.Contains(t, out, "price")
	assert.Contains(t, out, "0.62")
}

func TestFormatSuggestionsList(t *testing.T) {
	var buf bytes.Buffer
	formatSuggestionsList(&buf, []model.PatternSuggestion{
		{
			ID:            "11112222-3333-4444-5555-666677778888",
			Category:      model.CategoryVenue,
			SampleText:    "see you 📍 Nokal this Friday, tara!",
			ExpectedValue: "Nokal",
			Status:        model.SuggestionPending,
			AttemptCount:  4,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "11112222")
	assert.Contains(t, out, "Nokal")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "4")
}
