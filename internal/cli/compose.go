package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skill-split/skill-split/internal/compose"
)

func newComposeCmd() *cobra.Command {
	var (
		sectionIDs  string
		output      string
		title       string
		description string
		author      string
		tags        []string
	)
	cmd := &cobra.Command{
		Use:   "compose --sections id1,id2,... --output <path>",
		Short: "write a new file assembled from existing sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}

			ids := strings.Split(sectionIDs, ",")
			for i := range ids {
				ids[i] = strings.TrimSpace(ids[i])
			}

			result, err := compose.Compose(s, ids, output, compose.Options{
				Title:       title,
				Description: description,
				Author:      author,
				Tags:        tags,
			})
			if err != nil {
				return err
			}

			if err := os.WriteFile(output, result.Bytes, 0o644); err != nil {
				return err
			}
			cmd.Printf("composed %s from %d sections (hash=%s)\n", output, len(ids), result.Hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&sectionIDs, "sections", "", "comma-separated section ids, in output order")
	cmd.Flags().StringVar(&output, "output", "", "path to write the composed file")
	cmd.Flags().StringVar(&title, "title", "", "frontmatter title")
	cmd.Flags().StringVar(&description, "description", "", "frontmatter description")
	cmd.Flags().StringVar(&author, "author", "", "frontmatter author")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "frontmatter tags")
	cmd.MarkFlagRequired("sections")
	cmd.MarkFlagRequired("output")
	return cmd
}
