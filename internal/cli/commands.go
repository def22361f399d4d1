package cli

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/osgraph/internal/app"
	"github.com/specialistvlad/osgraph/internal/query"
)

func newSeedCommand(g *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "seed <file or directory>...",
		Short: "Apply HCL seed graphs and print the label to id map",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				ids, err := a.Seed(ctx, args...)
				if err != nil {
					return err
				}
				return encode(cmd.OutOrStdout(), output, ids)
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newWalkCommand(g *globalFlags) *cobra.Command {
	var (
		output string
		from   string
		seeds  []string
	)
	cmd := &cobra.Command{
		Use:   "walk <walker>",
		Short: "Run a registered walker and print its response",
		Long: `Run a registered walker from the node or edge given by --from, or from
the root node. With --seed the seed files are applied first, which is how a
walk over the in-memory store gets a graph to walk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				start := from
				if len(seeds) > 0 {
					ids, err := a.Seed(ctx, seeds...)
					if err != nil {
						return err
					}
					// --from may name a seed label.
					if id, ok := ids[from]; ok {
						start = id
					}
				}
				resp, err := a.Walk(ctx, args[0], start)
				if err != nil {
					return err
				}
				return encode(cmd.OutOrStdout(), output, resp.Snapshot())
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Id of the node or edge to start at. Defaults to the root node.")
	cmd.Flags().StringSliceVar(&seeds, "seed", nil, "Seed files or directories to apply before walking.")
	addOutputFlag(cmd, &output)
	return cmd
}

func newGetCommand(g *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				rec, err := a.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return encode(cmd.OutOrStdout(), output, rec.Document())
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newFindCommand(g *globalFlags) *cobra.Command {
	var (
		output string
		where  string
	)
	cmd := &cobra.Command{
		Use:   "find <collection>",
		Short: "Print the records of a collection matching a predicate",
		Example: `  osgraph find node --where '{"name": "City", "context.population": {"$gt": 1000000}}'
  osgraph find edge --where '{"context.lanes": {"$gte": 4}}' -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			var p query.Predicate
			if where != "" {
				if err := json.Unmarshal([]byte(where), &p); err != nil {
					return usageError("invalid --where predicate: %v", err)
				}
			}
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				recs, err := a.Find(ctx, args[0], p)
				if err != nil {
					return err
				}
				docs := make([]map[string]any, len(recs))
				for i, rec := range recs {
					docs[i] = rec.Document()
				}
				return encode(cmd.OutOrStdout(), output, docs)
			})
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "JSON predicate, e.g. '{\"name\": \"City\"}'.")
	addOutputFlag(cmd, &output)
	return cmd
}
