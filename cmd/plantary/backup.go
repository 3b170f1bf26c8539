package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newBackupCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot and restore the ledger through the blob store",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Write a CBOR snapshot of the ledger",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := openApp(cmd, v)
				if err != nil {
					return err
				}
				defer a.Close()
				info, err := a.svc.Backup(a.adminContext(cmd), a.blobs)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\n", info.Key, info.Size)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored snapshots",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := openApp(cmd, v)
				if err != nil {
					return err
				}
				defer a.Close()
				infos, err := a.svc.ListBackups(cmd.Context(), a.blobs)
				if err != nil {
					return err
				}
				for _, info := range infos {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\n", info.Key, info.Size)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "restore <key>",
			Short: "Replace the ledger with a stored snapshot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd, v)
				if err != nil {
					return err
				}
				defer a.Close()
				if err := a.svc.Restore(a.adminContext(cmd), a.blobs, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}
