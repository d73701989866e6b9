package cli

import (
	"github.com/spf13/cobra"

	"github.com/skill-split/skill-split/internal/checkout"
)

func newCheckoutCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "checkout <file_id> <target_path>",
		Short: "atomically deploy a stored file to the filesystem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}
			sourcePath, err := s.FilePathOf(args[0])
			if err != nil {
				return err
			}
			mgr := checkout.New(s, nil)
			deployed, err := mgr.Checkout(sourcePath, args[1], user)
			if err != nil {
				return err
			}
			cmd.Printf("checked out %s -> %s\n", sourcePath, deployed)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "identity recorded on the checkout row")
	return cmd
}

func newCheckinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkin <target_path>",
		Short: "delete a deployed file and close its checkout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}
			mgr := checkout.New(s, nil)
			if err := mgr.Checkin(args[0]); err != nil {
				return err
			}
			cmd.Printf("checked in %s\n", args[0])
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "list active checkouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := FromCmd(cmd)
			s, err := cliCtx.Store()
			if err != nil {
				return err
			}
			checkouts, err := s.ActiveCheckouts()
			if err != nil {
				return err
			}
			for _, c := range checkouts {
				cmd.Printf("%s\t%s\t%s\tsince=%s\n", c.ID, c.TargetPath, c.User, c.CheckedOutAt.Format("2006-01-02T15:04:05Z"))
			}
			return nil
		},
	}
}
