package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/perms"
)

// Scanner reads the installed-application inventory from a dump file. It
// implements source.Inventory.
type Scanner struct {
	path   string
	logger *slog.Logger
}

// New creates a new Scanner reading the dump at path.
func New(path string, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{path: path, logger: logger}
}

// Path returns the dump file the scanner reads.
func (s *Scanner) Path() string {
	return s.path
}

// Load reads and parses the dump. The file is read in full on every call;
// the result is a fresh set of records with derived relations filled in.
func (s *Scanner) Load(ctx context.Context) ([]*apps.Pkg, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}

	pkgs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse inventory %s: %w", s.path, err)
	}

	s.logger.Debug("scanned inventory", "path", s.path, "apps", len(pkgs), "duration", time.Since(start))
	return pkgs, nil
}

// LoadAll reads the inventory and the extra permission definitions
// concurrently. An empty definitionsPath yields the built-in table only.
func LoadAll(ctx context.Context, inv *Scanner, definitionsPath string) ([]*apps.Pkg, []perms.Known, error) {
	var (
		pkgs  []*apps.Pkg
		extra []perms.Known
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pkgs, err = inv.Load(gctx)
		return err
	})
	g.Go(func() error {
		if definitionsPath == "" {
			return nil
		}
		var err error
		extra, err = perms.LoadDefinitions(definitionsPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return pkgs, perms.MergeKnown(perms.KnownPermissions(), extra), nil
}
