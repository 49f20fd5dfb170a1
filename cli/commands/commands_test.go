package commands

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-engine-go/cli/internal/ui"
	"github.com/satishbabariya/prisma-engine-go/config"
	"github.com/satishbabariya/prisma-engine-go/query"
	"github.com/satishbabariya/prisma-engine-go/runtime/metadata"
)

const models = `{"models":[
  {"name":"User","fields":[{"name":"id","kind":"scalar"},{"name":"name","kind":"scalar"}]}
]}`

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prevFs, prevOut := config.AppFs, ui.Out
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "prisma/models.json", []byte(models), 0o644))
	config.AppFs = fs
	var out bytes.Buffer
	ui.Out = &out
	t.Cleanup(func() {
		config.AppFs, ui.Out = prevFs, prevOut
		configFile, schemaPath, protocol, debugFlag = "", "", "", false
		queryExplain, versionShort = false, false
		metricsFormat = "json"
		queryModels = "prisma/models.json"
	})

	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return ansi.ReplaceAllString(out.String(), ""), err
}

func TestQueryExplain(t *testing.T) {
	out, err := run(t, "query", "User", "find_many", `{"where":{"name":{"startswith":"a"}}}`, "--explain")
	require.NoError(t, err)
	assert.Contains(t, out, "findManyUser")
	assert.Contains(t, out, "startsWith")
}

func TestQueryExplainJSONProtocol(t *testing.T) {
	out, err := run(t, "--protocol", "json", "query", "User", "findUnique", `{"where":{"id":"1"}}`, "--explain")
	require.NoError(t, err)
	assert.Contains(t, out, `"action": "findUnique"`)
	assert.Contains(t, out, `"modelName": "User"`)
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{"unknown method", []string{"query", "User", "find_all", "--explain"}, `unknown method "find_all"`},
		{"unknown model", []string{"query", "Post", "find_many", "--explain"}, `unknown model "Post"`},
		{"bad json", []string{"query", "User", "find_many", "{", "--explain"}, "invalid json arguments"},
		{"missing models", []string{"query", "User", "find_many", "--models", "nope.json", "--explain"}, "failed to open model metadata"},
		{"bad protocol", []string{"--protocol", "grpc", "version"}, "unknown engine protocol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestParseInputRaw(t *testing.T) {
	in, err := parseInput(metadata.NewSchema(), []string{"-", "execute_raw", `{"query":"DELETE FROM t","parameters":[1]}`})
	require.NoError(t, err)
	assert.Equal(t, query.ExecuteRaw, in.Method)
	assert.Nil(t, in.Model)
	assert.Equal(t, []string{"query", "parameters"}, in.Arguments.Keys())
}

func TestVersionShort(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Contains(t, out, "prisma-engine-go version 0.1.0")
	assert.Contains(t, out, config.PrismaVersion)
}

func TestMetricsRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, "metrics", "--format", "xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)
}
