// cmd/kapenta/serve.go
//
// Boot sequence
// -------------
//
//  1. Load configuration (.env → YAML → KAPENTA_ env overrides).
//  2. Start the daily rotating logger.
//  3. Resolve `vault:` secrets, only when the config references any.
//  4. Open the GeoLite2 database when configured.
//  5. Map reports into the registry; a fatal mapping aborts boot.
//  6. Open the audit database and backup directory when configured.
//  7. Build the server and block in Start until a signal calls Stop.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/kapenta/internal/audit"
	"github.com/yanizio/kapenta/internal/backup"
	"github.com/yanizio/kapenta/internal/config"
	"github.com/yanizio/kapenta/internal/database"
	"github.com/yanizio/kapenta/internal/logger"
	"github.com/yanizio/kapenta/internal/render"
	"github.com/yanizio/kapenta/internal/report"
	"github.com/yanizio/kapenta/internal/requestinfo"
	"github.com/yanizio/kapenta/internal/server"
	"github.com/yanizio/kapenta/internal/vault"
)

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured reports until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *cfgPath)
		},
	}
}

func runServe(ctx context.Context, cfgPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging, cfg.BaseDir, runningInTTY())
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if err := resolveSecrets(ctx, cfg); err != nil {
		log.Errorw("secret resolution failed", "err", err)
		return err
	}

	if cfg.GeoIPDatabase != "" {
		if err := requestinfo.InitGeo(resolve(cfg.BaseDir, cfg.GeoIPDatabase)); err != nil {
			return err
		}
		defer func() { _ = requestinfo.CloseGeo() }()
	}

	reg, err := report.BuildRegistry(cfg.ApiRoot, cfg.Reports, cfg.BaseDir)
	if err != nil {
		log.Errorw("report mapping failed", "err", err)
		return err
	}

	eng, err := render.NewTemplateEngine(cfg.Render.CacheSize)
	if err != nil {
		return err
	}

	var opts []server.Option
	if cfg.Database != nil && cfg.Database.DSN != "" {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			log.Errorw("audit database unavailable", "err", err)
			return err
		}
		defer db.Close()

		store := audit.NewStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		opts = append(opts, server.WithAudit(store))
		log.Infow("render audit log enabled")
	}
	if cfg.Backup != nil && cfg.Backup.Directory != "" {
		w, err := backup.New(cfg.Backup.Directory, cfg.BaseDir)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithBackup(w))
		log.Infow("report backups enabled", "dir", w.Dir())
	}

	srv, err := server.New(cfg, reg, eng, opts...)
	if err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			zap.L().Info("signal received, stopping", zap.String("signal", sig.String()))
			if err := srv.Stop(); err != nil {
				zap.L().Warn("stop", zap.Error(err))
			}
		case <-ctx.Done():
		}
	}()

	return srv.Start(ctx)
}

// resolveSecrets swaps `vault:` references for their values.  Vault is only
// contacted when at least one reference exists.
func resolveSecrets(ctx context.Context, cfg *config.Config) error {
	if !config.HasSecretRefs(cfg) {
		return nil
	}
	cli, err := vault.New(ctx, zap.S().Infof)
	if err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	return config.ResolveSecrets(ctx, cfg, cli)
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
