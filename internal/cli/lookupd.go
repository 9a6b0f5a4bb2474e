package cli

import (
	"fmt"
	"log/slog"

	"github.com/leca/dt-serving-urls/internal/database"
	"github.com/leca/dt-serving-urls/internal/lookupsvc"
	"github.com/leca/dt-serving-urls/internal/router"
	"github.com/spf13/cobra"
)

var lookupdFlags = map[string]string{"lookup_listen_addr": "addr", "bucket": "bucket"}

var lookupdCmd = &cobra.Command{
	Use:   "lookupd",
	Short: "Starts the serving URL lookup service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, lookupdFlags)
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

		local := localProvider(cfg, db)
		svc := &lookupsvc.Service{
			Cache:    c,
			Provider: local,
			Opener:   local,
			Bucket:   cfg.Bucket,
			Log:      slog.Default(),
		}
		return listen(cmd.Context(), "lookup", cfg.LookupListenAddr, router.NewLookup(svc))
	},
}

func init() {
	lookupdCmd.Flags().String("addr", "", "listen address (overrides DT_LOOKUP_LISTEN_ADDR)")
	lookupdCmd.Flags().String("bucket", "", "bucket served by this instance (overrides DT_BUCKET)")
}
