package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/quix/internal/view"
)

func TestSummary_Collapsed(t *testing.T) {
	b := newBackend(t)

	out, err := run(t, b, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "DAILY INTELLIGENCE SUMMARY")
	assert.Contains(t, out, "Avg threat 47.5")
	assert.Contains(t, out, "THREAT LEVEL: HIGH")
	assert.Contains(t, out, "Tense border.")
	assert.NotContains(t, out, "Expect escalation.")
	assert.Contains(t, out, "[e] show full report")
}

func TestSummary_Expanded(t *testing.T) {
	b := newBackend(t)

	out, err := run(t, b, "summary", "--expanded")
	require.NoError(t, err)
	assert.Contains(t, out, "OUTLOOK: Expect escalation.")
	assert.Contains(t, out, "[e] show less")
}

func TestSummary_JSON(t *testing.T) {
	b := newBackend(t)

	out, err := run(t, b, "--json", "summary")
	require.NoError(t, err)

	var card view.SummaryCard
	require.NoError(t, json.Unmarshal([]byte(out), &card))
	assert.True(t, card.Available)
	assert.True(t, card.HasMore)
	assert.Equal(t, 2, card.EventCount)
	assert.Equal(t, []string{"IDF"}, card.KeyEntities)
	assert.Equal(t, []string{"THREAT LEVEL: HIGH", "Tense border."}, card.Lines)
}

func TestSummary_EmptyBackend(t *testing.T) {
	out := captureOutput(t, func() {
		cmd := &SummaryCommand{globals: &GlobalFlags{}}
		require.NoError(t, cmd.executeWithSource(testEnv("http://unused"), emptySource{}))
	})
	assert.Contains(t, out, view.MsgNoSummary)
}

func TestSummary_FetchError(t *testing.T) {
	b := newBackend(t)
	b.fail("/summary")

	_, err := run(t, b, "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch summary")
}
