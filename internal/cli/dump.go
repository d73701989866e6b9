package cli

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/skill-split/skill-split/internal/dump"
)

func newBackupCmd() *cobra.Command {
	var filename string
	cmd := &cobra.Command{
		Use:   "backup [--filename ...]",
		Short: "write a compressed logical dump of every stored file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}

			name := filename
			if name == "" {
				name = dump.DefaultFilename(time.Now())
			}
			path := name
			if !filepath.IsAbs(path) {
				path = filepath.Join(filepath.Dir(cliCtx.Config.Store.Path), name)
			}

			manifest, err := dump.Backup(s, path)
			if err != nil {
				return err
			}
			cmd.Printf("wrote %s (%d files)\n", path, len(manifest.Files))
			return nil
		},
	}
	cmd.Flags().StringVar(&filename, "filename", "", "dump filename (default: timestamped, alongside the store)")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <dump_path>",
		Short: "restore every file from a compressed logical dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}
			report, err := dump.Restore(s, args[0])
			if err != nil {
				return err
			}
			cmd.Printf("restored %d files, %d sections, integrity_ok=%v\n",
				report.FilesRestored, report.SectionsRestored, report.IntegrityOK)
			for _, e := range report.IntegrityErrors {
				cmd.PrintErrln(e)
			}
			return nil
		},
	}
}
