package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"evaluate", "check", "generate", "promote", "stats", "reset-cooldown", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "content-gate", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestEvaluateCommand_Flags(t *testing.T) {
	for _, name := range []string{"words", "audience", "emotion", "language", "english"} {
		assert.NotNil(t, evaluateCmd.Flags().Lookup(name), "evaluate should have --%s", name)
	}
	assert.Equal(t, "early_reader", evaluateCmd.Flags().Lookup("audience").DefValue)
	assert.Equal(t, "de", evaluateCmd.Flags().Lookup("language").DefValue)
}

func TestGenerateCommand_Flags(t *testing.T) {
	for _, name := range []string{"prompt", "prompt-file", "max-retries", "batch", "words", "audience"} {
		assert.NotNil(t, generateCmd.Flags().Lookup(name), "generate should have --%s", name)
	}
	assert.Equal(t, "3", generateCmd.Flags().Lookup("max-retries").DefValue)
}

func TestPromoteCommand_Flags(t *testing.T) {
	flag := promoteCmd.Flags().Lookup("artifact")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"])

	for _, name := range []string{"version", "quality", "feedback", "segment"} {
		assert.NotNil(t, promoteCmd.Flags().Lookup(name), "promote should have --%s", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestStatsCommand_Flags(t *testing.T) {
	flag := statsCmd.Flags().Lookup("history")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}
