package main

import (
	"fmt"
	"plantary/internal/catalogfile"
	"plantary/pkg/domain"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSeedCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Manage the seed catalog",
	}
	cmd.AddCommand(newSeedImportCmd(v), newSeedListCmd(v), newSeedExportCmd(v))
	return cmd
}

func newSeedImportCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "import [catalog.toml]",
		Short: "Create the seeds listed in a catalog file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := catalogfile.DefaultPath
			if len(args) == 1 {
				path = args[0]
			}
			f, err := catalogfile.Load(path)
			if err != nil {
				return err
			}
			a, err := openApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()
			created, err := catalogfile.Import(a.adminContext(cmd), a.svc, f)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d seeds from %s\n", len(created), len(f.Seeds), path)
			return err
		},
	}
}

func newSeedListCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog seeds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			kindName, _ := cmd.Flags().GetString("vtype")
			categoryName, _ := cmd.Flags().GetString("vsubtype")
			size, _ := cmd.Flags().GetUint16("page-size")
			page, _ := cmd.Flags().GetUint16("page")

			var seeds []domain.Seed
			if kindName == "" && categoryName == "" {
				seeds = a.svc.GetSeedsPage(cmd.Context(), size, page)
			} else {
				kind, err := domain.ParseKind(kindName)
				if err != nil {
					return err
				}
				category, err := domain.ParseCategory(categoryName)
				if err != nil {
					return err
				}
				if seeds, err = a.svc.GetSeedsOfTypePage(cmd.Context(), kind, category, size, page); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tSUBTYPE\tRARITY\tEDITION\tSTATE\tMETA_URL")
			for _, s := range seeds {
				fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\t%s\t%s\n",
					domain.FormatID(uint64(s.ID)), s.Kind, s.Category, s.Rarity, s.Edition, s.State, s.Descriptor)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("vtype", "", "filter by veggie type (plant or harvest)")
	cmd.Flags().String("vsubtype", "", "filter by category")
	cmd.Flags().Uint16("page-size", 0, "page size (0 lists everything)")
	cmd.Flags().Uint16("page", 0, "zero-based page number")
	return cmd
}

func newSeedExportCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "export <catalog.toml>",
		Short: "Write the current catalog to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()
			seeds := a.svc.GetSeedsPage(cmd.Context(), 0, 0)
			if err := catalogfile.Save(args[0], catalogfile.Export(seeds)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d seeds to %s\n", len(seeds), args[0])
			return nil
		},
	}
}
