package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jwalton/gchalk"
	"github.com/spf13/cobra"

	"github.com/skill-split/skill-split/internal/parse"
	"github.com/skill-split/skill-split/internal/recompose"
	"github.com/skill-split/skill-split/internal/section"
)

func newParseCmd() *cobra.Command {
	var showSections bool
	cmd := &cobra.Command{
		Use:   "parse <path>",
		Short: "parse a file and print its section tree without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], showSections)
		},
	}
	cmd.Flags().BoolVar(&showSections, "sections", true, "print the parsed section tree")
	return cmd
}

func runParse(cmd *cobra.Command, path string, showSections bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := parse.Parse(path, content)
	if err != nil {
		return err
	}
	cmd.Printf("kind=%s format=%s hash=%s\n", doc.File.Kind, doc.File.Format, doc.File.ContentHash)
	if showSections {
		printSectionTree(cmd, doc.Sections, 0)
	}
	return nil
}

func printSectionTree(cmd *cobra.Command, secs []*section.Section, depth int) {
	for _, s := range secs {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		cmd.Printf("%s%s [%s] %s\n", strings.Repeat("  ", depth), title, s.Kind, s.ID)
		printSectionTree(cmd, s.Children, depth+1)
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "parse a file and confirm it recomposes byte-exact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := parse.Parse(args[0], content)
			if err != nil {
				return err
			}
			if _, err := recompose.Verify(doc.File, doc.Sections); err != nil {
				return err
			}
			cmd.Println("ok: round-trip verified")
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "verify [path]",
		Short: "re-verify a stored file's (or every stored file's) round-trip hash",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}

			var paths []string
			if all || len(args) == 0 {
				paths, err = s.ListFilePaths()
				if err != nil {
					return err
				}
			} else {
				paths = args
			}

			failures := 0
			for _, p := range paths {
				file, secs, err := s.GetFile(p)
				if err != nil {
					return err
				}
				if _, err := recompose.Verify(file, secs); err != nil {
					failures++
					cmd.Printf("%s %s: %v\n", gchalk.Red("FAIL"), p, err)
					continue
				}
				cmd.Printf("%s   %s\n", gchalk.Green("OK"), p)
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d files failed round-trip verification", failures, len(paths))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "verify every stored file")
	return cmd
}
