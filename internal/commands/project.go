package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/extrato-dev/extrato/internal/categorize"
	"github.com/extrato-dev/extrato/internal/config"
	"github.com/extrato-dev/extrato/internal/logger"
	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/store"
)

// project is an opened extrato directory.
type project struct {
	dir   string
	cfg   *config.Config
	store *store.Store
	log   zerolog.Logger
}

// openProject loads extrato.yaml from the --dir flag (defaults when the
// file is missing) and opens the database. The caller closes the store.
func openProject(cmd *cobra.Command) (*project, context.Context, error) {
	dirFlag, _ := cmd.Flags().GetString("dir")
	dir, err := filepath.Abs(dirFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	dbCfg := cfg.Database
	if dbCfg.Driver == "" || dbCfg.Driver == "sqlite" {
		if dbCfg.DSN == "" {
			dbCfg.DSN = config.DefaultSQLitePath
		}
		if !filepath.IsAbs(dbCfg.DSN) {
			dbCfg.DSN = filepath.Join(dir, dbCfg.DSN)
		}
	}
	st, err := store.Open(dbCfg)
	if err != nil {
		return nil, nil, err
	}

	ctx := logger.WithContext(cmd.Context(), log)
	return &project{dir: dir, cfg: cfg, store: st, log: log}, ctx, nil
}

func (p *project) Close() error {
	return p.store.Close()
}

func (p *project) table() *categorize.Table {
	return categorize.FromConfig(p.cfg.Categories)
}

func (p *project) importDir() string {
	if filepath.IsAbs(p.cfg.Import.Dir) {
		return p.cfg.Import.Dir
	}
	return filepath.Join(p.dir, p.cfg.Import.Dir)
}

// resolveMonth parses flag, or picks the latest month with transactions of
// the given kinds.
func (p *project) resolveMonth(ctx context.Context, flag string, kinds ...model.Kind) (model.Month, error) {
	if flag != "" {
		return model.ParseMonth(flag)
	}
	months, err := p.store.DistinctMonths(ctx, kinds...)
	if err != nil {
		return model.Month{}, err
	}
	if len(months) == 0 {
		return model.Month{}, errors.New("no transactions imported yet")
	}
	return slices.MaxFunc(months, func(a, b model.Month) int {
		return a.MonthsSince(b)
	}), nil
}
