package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/permscope/internal/config"
	"github.com/blackwell-systems/permscope/internal/gate"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/resolve"
	"github.com/blackwell-systems/permscope/internal/scanner"
	"github.com/blackwell-systems/permscope/internal/settings"
	"github.com/blackwell-systems/permscope/internal/snapshots"
	"github.com/blackwell-systems/permscope/internal/source"
	"github.com/blackwell-systems/permscope/internal/store"
)

// awaitTimeout bounds how long a one-shot command waits for the catalog to
// catch up with the app snapshot.
const awaitTimeout = 30 * time.Second

// engine wires the sources, snapshot store and settings for one command.
type engine struct {
	store    *store.Store
	snaps    *snapshots.Manager
	settings *settings.Settings
	apps     *source.AppSource
	catalog  *source.CatalogSource

	cancel context.CancelFunc
	group  *errgroup.Group
}

// openStore opens the database at the configured path, creating the
// schema if needed.
func openStore() (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}
	return st, nil
}

// newManager returns the snapshot manager for st using the configured
// retention.
func newManager(st *store.Store) *snapshots.Manager {
	return snapshots.New(st,
		snapshots.WithSource(cfg.InventoryPath),
		snapshots.WithRetention(cfg.Retention),
		snapshots.WithLogger(logger),
	)
}

// loadKnown returns the built-in permission definitions merged with the
// configured definitions file.
func loadKnown() ([]perms.Known, error) {
	if cfg.DefinitionsPath == "" {
		return perms.KnownPermissions(), nil
	}
	extra, err := perms.LoadDefinitions(cfg.DefinitionsPath)
	if err != nil {
		return nil, err
	}
	return perms.MergeKnown(perms.KnownPermissions(), extra), nil
}

// openEngine builds an engine. With live set the app source reads the
// inventory file, otherwise it replays the latest stored snapshot.
func openEngine(ctx context.Context, live bool) (*engine, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}

	known, err := loadKnown()
	if err != nil {
		st.Close()
		return nil, err
	}

	set, err := settings.Open(st, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	mgr := newManager(st)
	var inv source.Inventory = snapshots.LatestInventory{Manager: mgr}
	if live {
		inv = scanner.New(cfg.InventoryPath, logger)
	}

	e := &engine{
		store:    st,
		snaps:    mgr,
		settings: set,
		apps:     source.NewAppSource(inv, mgr, logger),
		catalog:  source.NewCatalogSource(known, logger),
	}

	ctx, e.cancel = context.WithCancel(ctx)
	e.group, ctx = errgroup.WithContext(ctx)

	appStates, unsubscribe := e.apps.Subscribe()
	e.group.Go(func() error {
		defer unsubscribe()
		return e.catalog.Run(ctx, appStates)
	})

	return e, nil
}

// results streams the gate output for the engine's sources until ctx is
// done.
func (e *engine) results(ctx context.Context) <-chan gate.Result {
	appStates, unsubApps := e.apps.Subscribe()
	catalogStates, unsubCatalog := e.catalog.Subscribe()
	go func() {
		<-ctx.Done()
		unsubApps()
		unsubCatalog()
	}()
	return gate.Combine(ctx, appStates, catalogStates)
}

// await refreshes the app source and returns the first Ready gate result.
func (e *engine) await(ctx context.Context) (gate.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, awaitTimeout)
	defer cancel()

	results := e.results(ctx)
	if err := e.apps.Refresh(ctx); err != nil {
		if errors.Is(err, snapshots.ErrNoSnapshot) {
			return gate.NotReady, snapshots.ErrNoSnapshot
		}
		return gate.NotReady, err
	}

	for {
		select {
		case <-ctx.Done():
			return gate.NotReady, fmt.Errorf("timed out waiting for permission catalog: %w", ctx.Err())
		case r, ok := <-results:
			if !ok {
				return gate.NotReady, fmt.Errorf("sources closed before becoming ready")
			}
			if r.Ready() {
				return r, nil
			}
		}
	}
}

// resolution returns the resolved view of the latest snapshot.
func (e *engine) resolution(ctx context.Context) (*resolve.Resolution, error) {
	r, err := e.await(ctx)
	if err != nil {
		return nil, err
	}
	return resolve.Resolve(r.Joined), nil
}

// Close stops the catalog loop and releases the database.
func (e *engine) Close() error {
	e.cancel()
	err := e.group.Wait()
	e.apps.Close()
	e.catalog.Close()
	e.settings.Close()
	if cerr := e.store.Close(); cerr != nil {
		return cerr
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// override returns the setting's value, or the value parsed from flag when
// it was given on the command line. With save the parsed value is also
// persisted.
func override[T any](cmd *cobra.Command, flag string, s *settings.Setting[T], save bool, parse func() (T, error)) (T, error) {
	if !cmd.Flags().Changed(flag) {
		return s.Get(), nil
	}
	v, err := parse()
	if err != nil {
		return v, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	if save {
		if err := s.Put(v); err != nil {
			return v, fmt.Errorf("failed to save --%s: %w", flag, err)
		}
	}
	return v, nil
}

// searchTerm returns the --search value, or nil when it was not given.
func searchTerm(cmd *cobra.Command, value string) *string {
	if !cmd.Flags().Changed("search") {
		return nil
	}
	return &value
}

// getDefaultPIDFile returns the default PID file path for the watch daemon.
func getDefaultPIDFile() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.pid"), nil
}

// getDefaultLogFile returns the default log file path for the watch daemon.
func getDefaultLogFile() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.log"), nil
}
