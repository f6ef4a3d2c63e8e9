// Package cli implements the timbre command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ewilliams-labs/timbre/internal/config"
)

type rootOptions struct {
	cfgFile string
	v       *viper.Viper
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: config.NewViper()}

	cmd := &cobra.Command{
		Use:           "timbre",
		Short:         "Resolves aggregate audio features for artists",
		Long:          `Fetches an artist's top tracks, looks up their audio features through a chain of providers and averages them into one profile.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.readConfig(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.timbre.yaml)")
	flags.StringP("database", "d", "timbre.db", "Path to the SQLite profile cache")
	flags.Int("max-retries", 2, "retries after the first attempt for each provider call")
	opts.bind(flags, "database", "database")
	opts.bind(flags, "retry.max_retries", "max-retries")

	cmd.AddCommand(
		newServeCmd(opts),
		newResolveCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

func (o *rootOptions) bind(flags *pflag.FlagSet, key, name string) {
	if err := o.v.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("cli: bind flag %s: %v", name, err))
	}
}

// readConfig reads in the config file, if one is found.
func (o *rootOptions) readConfig(cmd *cobra.Command) error {
	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
		if err := o.v.ReadInConfig(); err != nil {
			return fmt.Errorf("cli: failed to read config %s: %w", o.cfgFile, err)
		}
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return fmt.Errorf("cli: failed to find home directory: %w", err)
		}
		o.v.AddConfigPath(home)
		o.v.SetConfigName(".timbre")
		o.v.SetConfigType("yaml")
		if err := o.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("cli: failed to read config: %w", err)
			}
			return nil
		}
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", o.v.ConfigFileUsed())
	return nil
}

func (o *rootOptions) load() (config.Config, error) {
	return config.FromViper(o.v)
}
