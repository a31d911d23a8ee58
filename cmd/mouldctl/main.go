// Command mouldctl is the shop's admin tool for inventory and billing chores
// that do not go through the HTTP API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"mould-rental-backend/internal/config"
	"mould-rental-backend/internal/logger"
	"mould-rental-backend/internal/repository/postgres"

	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	cfg        *config.Config
	db         *sql.DB
	store      *postgres.Store
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "mouldctl",
		Short:         "Administer the mould rental backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "config/config.dev.yaml", "Path to configuration file")

	root.AddCommand(
		newReconcileCmd(a),
		newEquipmentCmd(a),
		newChargesCmd(a),
		newReceiptCmd(a),
		newMigrateCmd(a),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		a.close()
		os.Exit(1)
	}
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	return nil
}

// openStore connects lazily so commands that only compute never touch the
// database.
func (a *app) openStore(ctx context.Context) (*postgres.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	db, err := postgres.Open(ctx, a.cfg.GetDatabaseConnectionString(), a.cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.store = postgres.NewStore(db)
	return a.store, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
		a.store = nil
	}
}
