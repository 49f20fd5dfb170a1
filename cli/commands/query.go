package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-engine-go/cli/internal/ui"
	"github.com/satishbabariya/prisma-engine-go/config"
	"github.com/satishbabariya/prisma-engine-go/engine"
	"github.com/satishbabariya/prisma-engine-go/query"
	"github.com/satishbabariya/prisma-engine-go/query/builder"
	"github.com/satishbabariya/prisma-engine-go/runtime/client"
	"github.com/satishbabariya/prisma-engine-go/runtime/metadata"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

var (
	queryModels  string
	queryExplain bool
)

var queryCmd = &cobra.Command{
	Use:   "query <model> <method> [json-args]",
	Short: "Send one query to the engine and print the result",
	Long: `Build and dispatch a single query. Raw methods (query_raw,
query_first, execute_raw) ignore the model argument, pass "-".

Examples:
  prisma-engine-go query User find_many '{"where":{"name":{"startswith":"a"}}}'
  prisma-engine-go query - query_raw '{"query":"SELECT 1","parameters":[]}'
  prisma-engine-go query Post create '{"data":{"title":"hi"}}' --explain`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryModels, "models", "m", "prisma/models.json", "Model metadata JSON file")
	queryCmd.Flags().BoolVar(&queryExplain, "explain", false, "Print the rendered request instead of sending it")
	rootCmd.AddCommand(queryCmd)
}

func loadSchema(path string) (*metadata.Schema, error) {
	f, err := config.AppFs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model metadata: %w", err)
	}
	defer f.Close()
	return metadata.Load(f)
}

func parseInput(schema *metadata.Schema, args []string) (builder.Input, error) {
	method, err := query.ParseMethod(args[1])
	if err != nil {
		return builder.Input{}, err
	}
	in := builder.Input{Method: method}

	if !method.IsRaw() {
		model, ok := schema.Model(args[0])
		if !ok {
			return builder.Input{}, fmt.Errorf("unknown model %q, known models: %v", args[0], schema.ModelNames())
		}
		in.Model = model
	}
	if len(args) == 3 {
		if err := json.Unmarshal([]byte(args[2]), &in.Arguments); err != nil {
			return builder.Input{}, fmt.Errorf("invalid json arguments: %w", err)
		}
	}
	if in.Arguments == nil {
		in.Arguments = types.Map{}
	}
	return in, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	schema := metadata.NewSchema()
	if method, err := query.ParseMethod(args[1]); err != nil {
		return err
	} else if !method.IsRaw() {
		if schema, err = loadSchema(queryModels); err != nil {
			return err
		}
	}

	in, err := parseInput(schema, args)
	if err != nil {
		return err
	}
	c, err := client.NewFromConfig(cfg, schema)
	if err != nil {
		return err
	}

	if queryExplain {
		out, err := c.Explain(in)
		if err != nil {
			return err
		}
		lang := "graphql"
		if c.Protocol() == engine.ProtocolJSON {
			lang = "json"
		}
		return ui.PrintMarkdown(ui.CodeBlock(out, lang))
	}

	if err := c.Connect(cmd.Context()); err != nil {
		return err
	}
	defer c.Disconnect(cmd.Context())

	c.Use(client.LoggingMiddleware())
	result, err := c.Execute(cmd.Context(), in)
	if err != nil {
		return err
	}
	return ui.PrintJSON(result)
}
