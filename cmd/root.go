// Package cmd is notefs's CLI: a cobra root command that mounts the
// filesystem, plus the list-users subcommand.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/relfs/notefs/internal/cfg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	bindErr      error
	config       cfg.Config
	resolvedArgs mountArgs
)

type mountArgs struct {
	mountPoint string
	database   string
}

var rootCmd = &cobra.Command{
	Use:   "notefs mountpoint [database]",
	Short: "Mount a hierarchy of notes and folders as a local filesystem",
	Long: `notefs is a FUSE adapter that mounts a hierarchical collection of
notes and folders, stored in a relational database, as a POSIX
filesystem: folders become directories, notes become files named
"{title}.{syntax}".`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if err := viper.Unmarshal(&config); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		if err := config.Validate(); err != nil {
			return err
		}
		var err error
		resolvedArgs, err = populateArgs(args)
		if err != nil {
			return err
		}
		config.MountPoint = resolvedArgs.mountPoint
		config.Database = resolvedArgs.database
		return runMount(cmd.Context(), &config)
	},
}

func populateArgs(args []string) (mountArgs, error) {
	mountPoint, err := filepath.Abs(args[0])
	if err != nil {
		return mountArgs{}, fmt.Errorf("canonicalizing mount point: %w", err)
	}
	var database string
	if len(args) == 2 {
		database, err = filepath.Abs(args[1])
		if err != nil {
			return mountArgs{}, fmt.Errorf("canonicalizing database path: %w", err)
		}
	}
	return mountArgs{mountPoint: mountPoint, database: database}, nil
}

// Execute runs the root command, exiting non-zero on any startup or
// mount failure per spec.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
	if bindErr == nil {
		bindErr = viper.BindPFlags(rootCmd.PersistentFlags())
	}
	rootCmd.AddCommand(listUsersCmd)
}
