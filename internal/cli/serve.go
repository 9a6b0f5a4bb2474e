package cli

import (
	"fmt"

	"github.com/leca/dt-serving-urls/internal/database"
	"github.com/leca/dt-serving-urls/internal/router"
	"github.com/leca/dt-serving-urls/internal/storage"
	"github.com/spf13/cobra"
)

var serveFlags = map[string]string{"listen_addr": "addr"}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the host-facing media API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, serveFlags)
		if err != nil {
			return err
		}

		db, err := database.NewSQLiteDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		c, closer, err := openCache(cmd.Context(), cfg, db)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		if closer != nil {
			defer closer.Close()
		}

		pipeline, err := newPipeline(c, cfg, db)
		if err != nil {
			return err
		}

		srv := router.New(db, storage.NewFileSystem(cfg.StoragePath), pipeline, cfg)
		return listen(cmd.Context(), "api", cfg.ListenAddr, srv.Router)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides DT_LISTEN_ADDR)")
}
