package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/MasatoraSakikoyama/supermarket-task-client/api"
	"github.com/MasatoraSakikoyama/supermarket-task-client/config"
	"github.com/MasatoraSakikoyama/supermarket-task-client/grid"
	"github.com/MasatoraSakikoyama/supermarket-task-client/query"
	"github.com/MasatoraSakikoyama/supermarket-task-client/session"
	"github.com/MasatoraSakikoyama/supermarket-task-client/telemetry"
)

// App wires the configuration, session store, API client and query cache for
// one command invocation.
type App struct {
	Config  *config.Config
	Client  *api.Client
	Store   *session.Store
	Cache   *query.Cache
	stdout  io.Writer
	stderr  io.Writer
	logger  zerolog.Logger
	collect telemetry.Collector
}

// hintRedirector is the CLI's navigation surface: redirects become printed
// hints. The session store guarantees the login hint fires once per forced
// logout.
type hintRedirector struct {
	out io.Writer
}

func (r hintRedirector) ToLogin() {
	printError(r.out, "session expired, run 'supermarket-task login'")
}

func (r hintRedirector) ToLanding() {
	printInfof(r.out, "try 'supermarket-task shop list' to get started")
}

// newApp builds the command environment from the environment variables and
// the global flags.
func newApp(globals *Globals, stdout, stderr io.Writer) (*App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if globals.Debug || cfg.Debug {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}).
			With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}

	tokenFile := session.NewTokenFile(cfg.TokenFile, cfg.TokenExpiration)
	store := session.NewStore(tokenFile,
		session.WithMaxAge(cfg.TokenMaxAge),
		session.WithRedirector(hintRedirector{out: stderr}),
		session.WithLogger(logger),
	)

	client := api.NewClient(cfg.APIBaseURL,
		api.WithTokenSource(store),
		api.WithUnauthorizedHook(store.ForceLogout),
		api.WithLogger(logger),
	)

	app := &App{
		Config: cfg,
		Client: client,
		Store:  store,
		Cache:  query.NewCache(),
		stdout: stdout,
		stderr: stderr,
		logger: logger,
	}

	if globals.Telemetry {
		app.collect = telemetry.NewTimingCollector()
	}

	// Logging out anywhere invalidates everything we cached.
	store.Subscribe(func(snap session.Snapshot) {
		if snap.State == session.Anonymous {
			app.Cache.Clear()
		}
	})

	return app, nil
}

// runContext returns the context commands execute under, with the telemetry
// collector attached when enabled.
func (a *App) runContext() context.Context {
	ctx := context.Background()
	if a.collect != nil {
		ctx = telemetry.WithCollector(ctx, a.collect)
	}
	return ctx
}

// reportTelemetry prints the timing tree when --telemetry is set.
func (a *App) reportTelemetry() {
	if a.collect == nil {
		return
	}
	_, _ = fmt.Fprintln(a.stderr)
	a.collect.Report(a.stderr)
}

// requireSession resolves the persisted session and enforces the auth guard:
// an anonymous session cannot run authenticated commands.
func (a *App) requireSession(ctx context.Context) error {
	if err := a.Store.Initialize(ctx, a.Client); err != nil {
		return err
	}
	snap := a.Store.Snapshot()
	if !snap.IsAuthenticated {
		printError(a.stderr, "not logged in, run 'supermarket-task login'")
		return NewCommandError(ExitAuth)
	}
	return nil
}

// sessionGuardErr reports a session that was ended out from under a running
// interactive flow, e.g. a logout in another terminal picked up by the token
// watcher.
func (a *App) sessionGuardErr() error {
	if a.Store.Snapshot().IsAuthenticated {
		return nil
	}
	printError(a.stderr, "session ended, discarding edits")
	return NewCommandError(ExitAuth)
}

// resultErr converts a failed API result into a printed error plus a
// CommandError. A 401 has already cleared the session and printed its hint.
func (a *App) resultErr(kind api.Kind, message string) error {
	switch kind {
	case api.KindUnauthorized:
		return NewCommandError(ExitAuth)
	default:
		printError(a.stderr, message)
		return NewCommandError(ExitFailure)
	}
}

// ShopPage fetches one page of shops through the cache.
func (a *App) ShopPage(ctx context.Context, offset, limit int) ([]api.ShopResponse, error) {
	return query.Get(ctx, a.Cache, query.ShopsKey(offset, limit), func(ctx context.Context) ([]api.ShopResponse, error) {
		res := a.Client.ListShops(ctx, offset, limit)
		if !res.OK() {
			return nil, &apiFailure{kind: res.Kind(), message: res.Error}
		}
		return *res.Data, nil
	})
}

// Shop fetches a single shop through the cache.
func (a *App) Shop(ctx context.Context, id int64) (api.ShopResponse, error) {
	return query.Get(ctx, a.Cache, query.ShopKey(id), func(ctx context.Context) (api.ShopResponse, error) {
		res := a.Client.GetShop(ctx, id)
		if !res.OK() {
			return api.ShopResponse{}, &apiFailure{kind: res.Kind(), message: res.Error}
		}
		return *res.Data, nil
	})
}

// Titles fetches a shop's account titles through the cache.
func (a *App) Titles(ctx context.Context, shopID int64) (api.AccountTitles, error) {
	return query.Get(ctx, a.Cache, query.TitlesKey(shopID), func(ctx context.Context) (api.AccountTitles, error) {
		res := a.Client.AccountTitles(ctx, shopID)
		if !res.OK() {
			return api.AccountTitles{}, &apiFailure{kind: res.Kind(), message: res.Error}
		}
		return *res.Data, nil
	})
}

// Entries fetches a shop's pivoted entries for one year through the cache.
func (a *App) Entries(ctx context.Context, shopID int64, year int) (api.AccountEntries, error) {
	return query.Get(ctx, a.Cache, query.EntriesKey(shopID, year), func(ctx context.Context) (api.AccountEntries, error) {
		res := a.Client.AccountEntries(ctx, shopID, year)
		if !res.OK() {
			return api.AccountEntries{}, &apiFailure{kind: res.Kind(), message: res.Error}
		}
		return *res.Data, nil
	})
}

// EntryGrids fetches titles and entries and builds the revenue and expense
// grids with the given orientation.
func (a *App) EntryGrids(ctx context.Context, shopID int64, year int, orientation grid.Orientation) (revenue, expense *grid.Model, err error) {
	titles, err := a.Titles(ctx, shopID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := a.Entries(ctx, shopID, year)
	if err != nil {
		return nil, nil, err
	}

	opt := grid.WithOrientation(orientation)
	revenue = grid.FromPivot(gridTitles(titles.Revenues), entries.Headers, gridCells(entries.Revenues), opt)
	expense = grid.FromPivot(gridTitles(titles.Expenses), entries.Headers, gridCells(entries.Expenses), opt)
	return revenue, expense, nil
}

// SaveEntryGrids posts both edited grids and invalidates the year's cache so
// the next read refetches.
func (a *App) SaveEntryGrids(ctx context.Context, shopID int64, year int, revenue, expense *grid.Model) error {
	payload := api.AccountEntriesUpdate{
		Revenues: apiCells(revenue.UpdatePayload()),
		Expenses: apiCells(expense.UpdatePayload()),
	}

	res := a.Client.SaveAccountEntries(ctx, shopID, payload)
	if !res.OK() {
		return &apiFailure{kind: res.Kind(), message: res.Error}
	}

	a.Cache.Invalidate(query.EntriesKey(shopID, year))
	return nil
}

// InvalidateShop drops a mutated shop and the list pages that may contain it.
func (a *App) InvalidateShop(id int64) {
	a.Cache.Invalidate(query.ShopKey(id), query.KeyOf("shop", "list"))
}

// apiFailure carries a failed result's classification through the query
// layer as an error.
type apiFailure struct {
	kind    api.Kind
	message string
}

func (e *apiFailure) Error() string { return e.message }

// commandFailure maps any fetch error to the printed-error convention.
func (a *App) commandFailure(err error) error {
	if fail, ok := err.(*apiFailure); ok {
		return a.resultErr(fail.kind, fail.message)
	}
	printError(a.stderr, err.Error())
	return NewCommandError(ExitFailure)
}

func gridTitles(titles []api.AccountTitle) []grid.Title {
	out := make([]grid.Title, len(titles))
	for i, t := range titles {
		out[i] = grid.Title{ID: t.ID, Code: t.Code, Name: t.Name}
	}
	return out
}

func gridCells(rows [][]api.EntryCell) [][]grid.Cell {
	out := make([][]grid.Cell, len(rows))
	for i, row := range rows {
		out[i] = make([]grid.Cell, len(row))
		for j, cell := range row {
			out[i][j] = grid.Cell{EntryID: cell.ID, Amount: cell.Amount}
		}
	}
	return out
}

func apiCells(rows [][]grid.Cell) [][]api.EntryCell {
	out := make([][]api.EntryCell, len(rows))
	for i, row := range rows {
		out[i] = make([]api.EntryCell, len(row))
		for j, cell := range row {
			out[i][j] = api.EntryCell{ID: cell.EntryID, Amount: cell.Amount}
		}
	}
	return out
}
