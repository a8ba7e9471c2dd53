package output_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreflow/hyouka/internal/output"
)

type sample struct {
	Total int    `json:"total" yaml:"total"`
	Name  string `json:"name" yaml:"name"`
}

func TestRender_JSON(t *testing.T) {
	b, err := output.Render(sample{Total: 3, Name: "Greeting"}, output.FormatJSON, output.Header{})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"total": 3`)
	assert.Contains(t, string(b), `"name": "Greeting"`)
}

func TestRender_YAML_PrefixesHeaderComment(t *testing.T) {
	b, err := output.Render(sample{Total: 3, Name: "Greeting"}, output.FormatYAML, output.Header{
		Title:       "Agreement summary",
		AccountID:   "acct-1",
		ScorecardID: "sc-1",
	})
	require.NoError(t, err)
	text := string(b)

	lines := strings.Split(text, "\n")
	assert.Equal(t, "# Agreement summary", lines[0])
	assert.Equal(t, "# account: acct-1", lines[1])
	assert.Equal(t, "# scorecard: sc-1", lines[2])
	assert.Contains(t, text, "total: 3")
	assert.Contains(t, text, "name: Greeting")
}

func TestRender_YAML_NoHeaderWhenEmpty(t *testing.T) {
	b, err := output.Render(sample{Total: 1}, output.FormatYAML, output.Header{})
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(string(b), "#"))
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := output.Render(sample{}, output.Format("xml"), output.Header{})
	assert.Error(t, err)
}
