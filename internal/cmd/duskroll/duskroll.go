// Package duskroll parses the table command configuration and composes the
// WebSocket, admin and audit runtimes.
package duskroll

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/duskroll/internal/core/dice"
	entrypoint "github.com/louisbranch/duskroll/internal/platform/cmd"
	"github.com/louisbranch/duskroll/internal/random"
	"github.com/louisbranch/duskroll/internal/services/table/admin"
	server "github.com/louisbranch/duskroll/internal/services/table/app"
	"github.com/louisbranch/duskroll/internal/services/table/storage"
	tablesqlite "github.com/louisbranch/duskroll/internal/services/table/storage/sqlite"
	"github.com/louisbranch/duskroll/internal/table"
)

// Config holds duskroll command configuration.
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR"     envDefault:":3000"`
	AdminAddr   string `env:"ADMIN_ADDR"`
	AuditDBPath string `env:"AUDIT_DB_PATH"`
	// DiceSeed fixes the face source for reproducible sessions. Zero draws a
	// crypto seed.
	DiceSeed int64 `env:"DICE_SEED"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "table HTTP/WebSocket listen address")
	fs.StringVar(&cfg.AdminAddr, "admin-addr", cfg.AdminAddr, "admin gRPC listen address (empty disables)")
	fs.StringVar(&cfg.AuditDBPath, "audit-db", cfg.AuditDBPath, "SQLite audit log path (empty disables)")
	fs.Int64Var(&cfg.DiceSeed, "dice-seed", cfg.DiceSeed, "dice seed (0 for a random seed)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the table runtime and serves it until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTable, func(ctx context.Context) error {
		return serve(ctx, cfg)
	})
}

func serve(ctx context.Context, cfg Config) error {
	var auditStore storage.AuditEventStore
	var auditReader storage.AuditEventReader
	if path := strings.TrimSpace(cfg.AuditDBPath); path != "" {
		store, err := openAuditStore(path)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close audit store: %v", err)
			}
		}()
		auditStore = store
		auditReader = store
	}

	seed := cfg.DiceSeed
	if seed == 0 {
		var err error
		if seed, err = random.NewSeed(); err != nil {
			return err
		}
	}

	tableServer, err := server.NewServer(server.Config{
		HTTPAddr:     cfg.HTTPAddr,
		AuditStore:   auditStore,
		TableOptions: []table.Option{table.WithFaceSource(dice.NewRandSource(seed))},
	})
	if err != nil {
		return fmt.Errorf("init table server: %w", err)
	}
	defer tableServer.Close()

	var adminServer *admin.Server
	if addr := strings.TrimSpace(cfg.AdminAddr); addr != "" {
		adminServer, err = admin.NewServer(admin.Config{Addr: addr, Audit: auditReader}, tableServer.Coordinator())
		if err != nil {
			return fmt.Errorf("init admin server: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The first runtime to stop takes the other one down with it.
	errs := make(chan error, 2)
	running := 1
	go func() {
		errs <- wrapErr("serve table", tableServer.ListenAndServe(ctx))
	}()
	if adminServer != nil {
		running++
		go func() {
			errs <- wrapErr("serve admin", adminServer.Serve(ctx))
		}()
	}

	var firstErr error
	for i := 0; i < running; i++ {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
		cancel()
	}
	return firstErr
}

func openAuditStore(path string) (*tablesqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit storage dir: %w", err)
		}
	}
	store, err := tablesqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit sqlite store: %w", err)
	}
	return store, nil
}

func wrapErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", stage, err)
}
