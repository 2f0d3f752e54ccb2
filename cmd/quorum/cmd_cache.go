package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/modelmux/quorum/internal/cache"
)

var cacheDirFlag string

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the round cache",
		Long: `Manage the round cache.

With caching enabled, completed rounds are stored on disk keyed by prompt,
provider set, and task type. An identical request is then answered from disk
without calling any provider.`,
	}

	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached round",
		Args:  cobra.NoArgs,
		RunE:  cacheClearE,
	}

	cmd.Flags().StringVar(&cacheDirFlag, "cache-dir", "", "Cache directory to clear (default: cache.dir from config)")

	return cmd
}

func cacheClearE(cmd *cobra.Command, args []string) error {
	dir := cacheDirFlag
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.Cache.Dir
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving cache directory: %w", err)
	}

	c := cache.New(absDir)
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	fmt.Printf("Cache cleared: %s\n", absDir)
	return nil
}
