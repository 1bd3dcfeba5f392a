package main

import (
	"fmt"

	"github.com/dgnsrekt/srttts/internal/cache"
	"github.com/dgnsrekt/srttts/internal/config"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Manage the clip cache",
		Long: paragraph(fmt.Sprintf("\nSynthesized lines are %s so unchanged subtitles are not sent to the speech API again.",
			keyword("cached on disk"))),
		Args: cobra.NoArgs,
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show clip cache usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCache()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			s := store.Summary()
			if !store.Persistent() {
				fmt.Fprintln(cmd.OutOrStdout(), "Clip cache directory is in use by another run.")
				return nil
			}
			t := table.NewWriter()
			t.SetStyle(table.StyleRounded)
			t.AppendRows([]table.Row{
				{"Directory", s.DiskDir},
				{"Clips", humanize.Comma(int64(s.Disk.Items))},
				{"Size", humanize.Bytes(uint64(max(s.Disk.Size, 0)))},
				{"Capacity", humanize.Bytes(uint64(max(s.Disk.Capacity, 0)))},
			})
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached clip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCache()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			if !store.Persistent() {
				return fmt.Errorf("clip cache is in use by another run")
			}
			before := store.Summary().Disk
			if err := store.Clear(); err != nil {
				return fmt.Errorf("unable to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s clips (%s)\n",
				humanize.Comma(int64(before.Items)), humanize.Bytes(uint64(max(before.Size, 0))))
			return nil
		},
	}
)

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}

func openCache() (*cache.ClipCache, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return cache.Open(cacheConfig(cfg))
}
