// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
	storefront "github.com/tidewater-commerce/tidewater/services/storefront"
	"github.com/tidewater-commerce/tidewater/services/storefront/config"
	"github.com/tidewater-commerce/tidewater/services/storefront/storage/postgres"
)

var (
	configPath string
	cfg        *config.Config
	logger     *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "tidewater",
		Short: "Tidewater storefront and back-office API server",
		Long: `Tidewater serves the storefront API: public catalog browsing,
cart management, the admin back office, and payment webhooks.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			logger = logging.New(logging.Config{
				Level:   logging.ParseLevel(cfg.Logging.Level),
				LogDir:  cfg.Logging.Dir,
				Service: "storefront",
				JSON:    cfg.Logging.JSON,
				Quiet:   cfg.Logging.Quiet,
			})
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the storefront HTTP server",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE:  runMigrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load demo catalog data into the database",
		RunE:  runSeed,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to config.yaml (defaults apply when omitted)")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := storefront.NewServer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("assembling server: %w", err)
	}

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, srv.ApplyConfig, logger)
		if err != nil {
			logger.Warn("config watcher unavailable, hot reload disabled", "error", err)
		} else {
			go watcher.Start(ctx)
		}
	}

	return srv.Run(ctx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	defer logger.Close()

	store, err := openDatabase()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.AutoMigrate(); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	logger.Info("schema migrated")
	return nil
}

func openDatabase() (*postgres.Store, error) {
	if cfg.Database.Host == "" {
		return nil, fmt.Errorf("no database configured: set database.host or TIDEWATER_DB_HOST")
	}
	store, err := postgres.Open(postgres.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return store, nil
}
