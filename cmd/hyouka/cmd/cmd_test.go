package cmd

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreflow/hyouka/internal/config"
	"github.com/scoreflow/hyouka/internal/model"
)

func TestNewRootCmd_RegistersSubcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"summarize", "search", "build-dataset", "cost", "mcp"} {
		found, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, found.Name())
	}
}

func TestNewRootCmd_VersionFlag(t *testing.T) {
	root := NewRootCmd()
	assert.Equal(t, "dev", root.Version)
}

func TestSummarizeCmd_RequiresScorecard(t *testing.T) {
	cmd := newSummarizeCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestSummarizeCmd_Defaults(t *testing.T) {
	cmd := newSummarizeCmd()
	daysFlag := cmd.Flags().Lookup("days")
	require.NotNil(t, daysFlag)
	assert.Equal(t, "30", daysFlag.DefValue)

	formatFlag := cmd.Flags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "json", formatFlag.DefValue)
}

func TestSearchCmd_RequiresScorecardAndScore(t *testing.T) {
	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--scorecard", "sc1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestBuildDatasetCmd_RequiresScorecardAndScore(t *testing.T) {
	cmd := newBuildDatasetCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestCostCmd_Defaults(t *testing.T) {
	cmd := newCostCmd()
	daysFlag := cmd.Flags().Lookup("days")
	require.NotNil(t, daysFlag)
	assert.Equal(t, "7", daysFlag.DefValue)

	hoursFlag := cmd.Flags().Lookup("hours")
	require.NotNil(t, hoursFlag)
	assert.Equal(t, "0", hoursFlag.DefValue)
}

func TestMCPCmd_DefaultAddr(t *testing.T) {
	cmd := newMCPCmd()
	addrFlag := cmd.Flags().Lookup("addr")
	require.NotNil(t, addrFlag)
	assert.Equal(t, ":8090", addrFlag.DefValue)
}

func TestOptional(t *testing.T) {
	assert.Nil(t, optional(""))
	v := optional("x")
	require.NotNil(t, v)
	assert.Equal(t, "x", *v)
}

func TestRankFromSummary_SingleScore(t *testing.T) {
	ac1 := 0.82
	result := model.SummaryResult{
		Analysis: model.AnalysisResult{AC1: &ac1},
	}

	rank := rankFromSummary(result)
	require.NotNil(t, rank)
	assert.InDelta(t, 0.82, *rank, 0.0001)
}

func TestRankFromSummary_MultiScoreMean(t *testing.T) {
	a, b := 0.5, 0.9
	result := model.SummaryResult{
		Scores: []model.ScoreSummaryEntry{
			{Analysis: model.AnalysisResult{AC1: &a}},
			{Analysis: model.AnalysisResult{AC1: &b}},
			{Analysis: model.AnalysisResult{AC1: nil}},
		},
	}

	rank := rankFromSummary(result)
	require.NotNil(t, rank)
	assert.InDelta(t, 0.7, *rank, 0.0001)
}

func TestRankFromSummary_NoAC1(t *testing.T) {
	result := model.SummaryResult{
		Scores: []model.ScoreSummaryEntry{
			{Analysis: model.AnalysisResult{AC1: nil}},
		},
	}

	assert.Nil(t, rankFromSummary(result))
}

func TestLoadSigningKey_Empty(t *testing.T) {
	key, err := loadSigningKey(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestLoadSigningKey_Inline(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	encoded := base64.StdEncoding.EncodeToString(priv)

	key, err := loadSigningKey(config.Config{JWTSigningKey: encoded})
	require.NoError(t, err)
	assert.Equal(t, priv, key)
}

func TestLoadSigningKey_InvalidBase64(t *testing.T) {
	_, err := loadSigningKey(config.Config{JWTSigningKey: "not-base64!!"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode signing key")
}

func TestLoadSigningKey_WrongLength(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("too-short"))
	_, err := loadSigningKey(config.Config{JWTSigningKey: encoded})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must decode to")
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := newClient(config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HYOUKA_ENDPOINT")
}
