// Package main provides the entry point for the srttts CLI application.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/srttts/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string

	rootCmd = &cobra.Command{
		Use:   "srttts",
		Short: "Turn SRT subtitles into a timed speech track",
		Long: paragraph(
			fmt.Sprintf("\nRead every subtitle %s and lay the speech out on the subtitle timeline.", keyword("out loud")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			closer, err := setupLog(os.Stderr)
			if err != nil {
				return err
			}
			closeLog = closer
			tryLoadConfigFromDefaultPlaces()
			return nil
		},
	}
)

func main() {
	err := rootCmd.Execute()
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is srttts.yml in the user config dir)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "show debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().Lookup("log-file").NoOptDefVal = defaultLogFile

	config.Bind(viper.GetViper())

	rootCmd.AddCommand(convertCmd, configCmd, cacheCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	if configFile != "" {
		viper.SetConfigFile(config.ExpandPath(configFile))
	} else {
		dirs, err := config.ConfigDirs()
		if err != nil {
			fmt.Println("Could not load find configuration directory.")
			os.Exit(1)
		}
		for _, v := range dirs {
			viper.AddConfigPath(v)
		}
		viper.SetConfigName(config.AppName)
		viper.SetConfigType("yaml")
		configFile = filepath.Join(dirs[0], config.AppName+".yml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			log.Debug("Using configuration file", "path", used)
			configFile = used
		}
	}
}
