package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configName = "plantary"

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "plantary",
		Short:         "Veggie token ledger",
		Long:          "Plantary mints plants and harvests from a curated seed catalog and tracks their ownership.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, v)
		},
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default ./plantary.toml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("as", "", "account used for admin commands (default the configured admin)")
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(newServeCmd(v), newSeedCmd(v), newBackupCmd(v))
	return root
}

func initConfig(cmd *cobra.Command, v *viper.Viper) error {
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return v.ReadInConfig()
	}
	v.SetConfigName(configName)
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	// It's fine if no config file is found; we use defaults.
	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}
