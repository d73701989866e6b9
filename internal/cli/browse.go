package cli

import (
	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"

	"github.com/skill-split/skill-split/internal/section"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <path>",
		Short: "list a file's sections (flat, order_index order)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}
			_, secs, err := s.GetFile(args[0])
			if err != nil {
				return err
			}
			printFlat(cmd, secs)
			return nil
		},
	}
}

func printFlat(cmd *cobra.Command, secs []*section.Section) {
	for _, s := range secs {
		cmd.Printf("%s\tlevel=%d\t%s\t%s\n", s.ID, s.Level, s.Kind, s.Title)
		printFlat(cmd, s.Children)
	}
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <path>",
		Short: "print a file's section hierarchy with ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}
			_, secs, err := s.GetFile(args[0])
			if err != nil {
				return err
			}
			printSectionTree(cmd, secs, 0)
			return nil
		},
	}
}

func newGetSectionCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "get-section <id>",
		Short: "print one section's metadata and content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}
			sec, err := s.GetSection(args[0])
			if err != nil {
				return err
			}
			if raw {
				cmd.Println(litter.Sdump(sec))
				return nil
			}
			cmd.Printf("id=%s kind=%s level=%d title=%q file_type=%s\n", sec.ID, sec.Kind, sec.Level, sec.Title, sec.FileType)
			cmd.Println("---")
			cmd.Println(sec.Content)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "dump the full Section struct instead of the formatted view")
	return cmd
}

func newNextCmd() *cobra.Command {
	var firstChild bool
	cmd := &cobra.Command{
		Use:   "next <id> <path> [--child]",
		Short: "progressive disclosure: the next sibling, or first child with --child",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}
			sec, err := s.GetNextSection(args[0], firstChild)
			if err != nil {
				return err
			}
			if sec == nil {
				cmd.Println("(exhausted)")
				return nil
			}
			cmd.Printf("id=%s kind=%s level=%d title=%q\n", sec.ID, sec.Kind, sec.Level, sec.Title)
			return nil
		},
	}
	cmd.Flags().BoolVar(&firstChild, "child", false, "descend to the first child instead of the next sibling")
	return cmd
}
