package cli

import (
	"github.com/spf13/cobra"

	"github.com/skill-split/skill-split/internal/query"
)

func newSearchCmd() *cobra.Command {
	var file string
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "ranked BM25 text search, optionally scoped to one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			q, err := cliCtx.QueryLayer()
			if err != nil {
				return err
			}
			results, err := q.Search(args[0], file, limit)
			if err != nil {
				return err
			}
			printResults(cmd, results)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "limit results to this file path")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results")
	return cmd
}

func newSearchSemanticCmd() *cobra.Command {
	var vectorWeight float64
	var limit int
	cmd := &cobra.Command{
		Use:   "search-semantic <query>",
		Short: "hybrid BM25 + vector search (degrades to text-only without embeddings)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			q, err := cliCtx.QueryLayer()
			if err != nil {
				return err
			}
			results, err := q.Hybrid(args[0], vectorWeight, limit)
			if err != nil {
				return err
			}
			printResults(cmd, results)
			return nil
		},
	}
	cmd.Flags().Float64Var(&vectorWeight, "vector-weight", 0.7, "weight given to vector similarity, 0..1")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results")
	return cmd
}

func newListLibraryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-library",
		Short: "list every stored file's path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}
			paths, err := s.ListFilePaths()
			if err != nil {
				return err
			}
			for _, p := range paths {
				cmd.Println(p)
			}
			return nil
		},
	}
}

func newSearchLibraryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search-library <query>",
		Short: "ranked BM25 text search across every stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			q, err := cliCtx.QueryLayer()
			if err != nil {
				return err
			}
			results, err := q.Search(args[0], "", limit)
			if err != nil {
				return err
			}
			printResults(cmd, results)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results")
	return cmd
}

func printResults(cmd *cobra.Command, results []query.Result) {
	for _, r := range results {
		cmd.Printf("%.4f\t%s\tlevel=%d\t%s\t%s\n", r.Score, r.SectionID, r.Level, r.Title, r.FilePath)
	}
}
