package cli

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/skill-split/skill-split/internal/parse"
	"github.com/skill-split/skill-split/internal/section"
	"github.com/skill-split/skill-split/internal/store"
)

func newStoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "store <path>",
		Short: "parse a file, store it, and verify its round-trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}
			file, err := storeOnePath(s, args[0])
			if err != nil {
				return err
			}
			cmd.Printf("stored %s (id=%s, kind=%s)\n", file.Path, file.ID, file.Kind)
			return nil
		},
	}
}

func newIngestCmd() *cobra.Command {
	var glob string
	cmd := &cobra.Command{
		Use:   "ingest <path>",
		Short: "bulk-store every regular file under path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}

			root := args[0]
			info, err := os.Stat(root)
			if err != nil {
				return err
			}

			var paths []string
			switch {
			case !info.IsDir():
				paths = []string{root}
			case glob != "":
				paths, err = doublestar.FilepathGlob(filepath.Join(root, glob))
				if err != nil {
					return err
				}
			default:
				err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
					if err != nil {
						return err
					}
					if d.IsDir() {
						return nil
					}
					paths = append(paths, p)
					return nil
				})
				if err != nil {
					return err
				}
			}

			stored := 0
			for _, p := range paths {
				if _, err := storeOnePath(s, p); err != nil {
					cmd.PrintErrf("skip %s: %v\n", p, err)
					continue
				}
				stored++
			}
			cmd.Printf("ingested %d of %d files\n", stored, len(paths))
			return nil
		},
	}
	cmd.Flags().StringVar(&glob, "glob", "", "doublestar pattern relative to path, e.g. \"**/*.md\" (default: walk every regular file)")
	return cmd
}

// storeOnePath reads, parses, and stores one file, the shared path
// behind both `store` (single file) and `ingest` (directory walk).
func storeOnePath(s *store.Store, path string) (section.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return section.File{}, err
	}
	doc, err := parse.Parse(path, content)
	if err != nil {
		return section.File{}, err
	}
	return s.StoreFile(doc, content)
}
