package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/skill-split/skill-split/internal/config"
	"github.com/skill-split/skill-split/pkg/logger"
)

// globalFlags holds the root command's persistent flags, grounded on
// the teacher's internal/cli/root.go GlobalFlags pattern.
type globalFlags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

var flags globalFlags

type contextKey struct{}

// NewRootCmd builds the skill-split command tree: config -> logger ->
// Context bootstrap in PersistentPreRunE, matching the teacher's
// root.go sequence, adapted to skill-split's trimmed Config and
// Context types.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "skillsplit",
		Short: "skill-split - addressable content library for skills, commands, and docs",
		Long: `skillsplit parses markdown, XML, JSON, and script files into an
addressable hierarchy of sections, stores them in a searchable index,
and lets you browse, search, compose, and deploy sections individually.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}

			configPath := flags.ConfigPath
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logLevel := cfg.Log.Level
			if flags.Verbose {
				logLevel = "debug"
			}
			if flags.Quiet {
				logLevel = "error"
			}
			if err := logger.Init(logger.LogConfig{
				Level:  logLevel,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			}); err != nil {
				return err
			}

			log := logger.Get()
			cliCtx := NewContext(cfg, configPath, log)
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, cliCtx))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cliCtx := FromCmd(cmd); cliCtx != nil {
				return cliCtx.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "config file path")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "quiet mode")

	root.AddCommand(newParseCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newStoreCmd())
	root.AddCommand(newIngestCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newTreeCmd())
	root.AddCommand(newGetSectionCmd())
	root.AddCommand(newNextCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newSearchSemanticCmd())
	root.AddCommand(newListLibraryCmd())
	root.AddCommand(newSearchLibraryCmd())
	root.AddCommand(newCheckoutCmd())
	root.AddCommand(newCheckinCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newComposeCmd())
	root.AddCommand(newBackupCmd())
	root.AddCommand(newRestoreCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// FromCmd retrieves the Context stashed by PersistentPreRunE.
func FromCmd(cmd *cobra.Command) *Context {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cliCtx, _ := ctx.Value(contextKey{}).(*Context)
	return cliCtx
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the skillsplit version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(Version)
			return nil
		},
	}
}

// Version is set at build time via -ldflags; "dev" otherwise.
var Version = "dev"
