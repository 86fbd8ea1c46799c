package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"

	"github.com/MasatoraSakikoyama/supermarket-task-client/grid"
	"github.com/MasatoraSakikoyama/supermarket-task-client/output"
)

type EntriesCmd struct {
	Show EntriesShowCmd `cmd:"" help:"Show a shop's ledger for one year."`
	Edit EntriesEditCmd `cmd:"" help:"Edit a shop's ledger entries."`
}

type EntriesShowCmd struct {
	ShopID  int64 `arg:"" help:"Shop to show entries for."`
	Year    int   `help:"Ledger year (defaults to the current year)."`
	ByTitle bool  `help:"Show account titles as rows instead of periods."`
}

func (cmd *EntriesShowCmd) Run(ctx *kong.Context, globals *Globals) error {
	app, err := newApp(globals, ctx.Stdout, ctx.Stderr)
	if err != nil {
		return err
	}
	defer app.reportTelemetry()

	runCtx := app.runContext()
	if err := app.requireSession(runCtx); err != nil {
		return err
	}

	year := cmd.Year
	if year == 0 {
		year = time.Now().Year()
	}

	shop, err := app.Shop(runCtx, cmd.ShopID)
	if err != nil {
		return app.commandFailure(err)
	}

	orientation := grid.RowsPeriods
	if cmd.ByTitle {
		orientation = grid.RowsTitles
	}
	revenue, expense, err := app.EntryGrids(runCtx, cmd.ShopID, year, orientation)
	if err != nil {
		return app.commandFailure(err)
	}

	styles := output.NewStyles(ctx.Stdout)
	fmt.Fprintf(ctx.Stdout, "%s %d\n\n", styles.Title(shop.Name), year)

	fmt.Fprintln(ctx.Stdout, styles.Keyword("Revenues"))
	revenue.Render(ctx.Stdout, styles)
	fmt.Fprintln(ctx.Stdout)

	fmt.Fprintln(ctx.Stdout, styles.Keyword("Expenses"))
	expense.Render(ctx.Stdout, styles)
	return nil
}

type EntriesEditCmd struct {
	ShopID int64 `arg:"" help:"Shop to edit entries for."`
	Year   int   `help:"Ledger year (defaults to the current year)."`

	Side      string `help:"Side of the ledger to edit." enum:"revenue,expense," default:""`
	TitleCode string `help:"Account title code of the cell to edit."`
	Period    string `name:"period" help:"Period of the cell to edit (YYYY-MM)."`
	Amount    string `help:"New amount for the cell, empty clears it."`
	Yes       bool   `help:"Save without asking for confirmation." short:"y"`
}

func (cmd *EntriesEditCmd) Run(ctx *kong.Context, globals *Globals) error {
	app, err := newApp(globals, ctx.Stdout, ctx.Stderr)
	if err != nil {
		return err
	}
	defer app.reportTelemetry()

	runCtx := app.runContext()
	if err := app.requireSession(runCtx); err != nil {
		return err
	}

	year := cmd.Year
	if year == 0 {
		year = time.Now().Year()
	}

	revenue, expense, err := app.EntryGrids(runCtx, cmd.ShopID, year, grid.RowsPeriods)
	if err != nil {
		return app.commandFailure(err)
	}

	if cmd.Side != "" || cmd.TitleCode != "" || cmd.Period != "" {
		revenue, expense, err = cmd.applyFlags(ctx, revenue, expense)
	} else {
		revenue, expense, err = cmd.editLoop(ctx, app, revenue, expense)
	}
	if err != nil {
		return err
	}
	if revenue == nil {
		printInfof(ctx.Stdout, "no changes")
		return nil
	}

	if !cmd.Yes {
		confirmed, err := promptYesNo(fmt.Sprintf("Save entries for %d?", year))
		if err != nil {
			return err
		}
		if !confirmed {
			printInfof(ctx.Stdout, "discarded")
			return nil
		}
	}

	if err := app.SaveEntryGrids(runCtx, cmd.ShopID, year, revenue, expense); err != nil {
		return app.commandFailure(err)
	}
	printSuccess(ctx.Stdout, "entries saved")
	return nil
}

// applyFlags performs a single non-interactive cell edit addressed by
// --side, --title-code and --period.
func (cmd *EntriesEditCmd) applyFlags(ctx *kong.Context, revenue, expense *grid.Model) (*grid.Model, *grid.Model, error) {
	if cmd.Side == "" || cmd.TitleCode == "" || cmd.Period == "" {
		printError(ctx.Stderr, "non-interactive edits need --side, --title-code and --period together")
		return nil, nil, NewCommandError(ExitFailure)
	}
	period, ok := grid.ParsePeriodLabel(cmd.Period)
	if !ok {
		printError(ctx.Stderr, fmt.Sprintf("invalid period %q, expected YYYY-MM", cmd.Period))
		return nil, nil, NewCommandError(ExitFailure)
	}

	target := revenue
	if cmd.Side == "expense" {
		target = expense
	}
	ti := target.TitleIndexByCode(cmd.TitleCode)
	if ti < 0 {
		printError(ctx.Stderr, fmt.Sprintf("no %s title with code %q", cmd.Side, cmd.TitleCode))
		return nil, nil, NewCommandError(ExitFailure)
	}
	pi := target.PeriodIndex(period)
	if pi < 0 {
		printError(ctx.Stderr, fmt.Sprintf("period %s is not part of this ledger year", period.Label()))
		return nil, nil, NewCommandError(ExitFailure)
	}

	edited := target.SetCellAt(ti, pi, cmd.Amount)
	if cmd.Side == "expense" {
		return revenue, edited, nil
	}
	return edited, expense, nil
}

// editLoop drives the interactive cell editor. Returning nil grids means the
// user made no edits.
func (cmd *EntriesEditCmd) editLoop(ctx *kong.Context, app *App, revenue, expense *grid.Model) (*grid.Model, *grid.Model, error) {
	if !isTerminal() {
		printError(ctx.Stderr, "stdin is not a terminal, use --side, --title-code and --period")
		return nil, nil, NewCommandError(ExitFailure)
	}

	// Watch the token file while the editor runs: a logout from another
	// terminal aborts the session here instead of failing at save time.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if err := app.Store.Watch(watchCtx); err != nil {
		app.logger.Debug().Err(err).Msg("token watcher unavailable")
	}

	styles := output.NewStyles(ctx.Stdout)
	dirty := false

	for {
		if err := app.sessionGuardErr(); err != nil {
			return nil, nil, err
		}

		side, err := selectSide()
		if err != nil || side == "" {
			if !dirty {
				return nil, nil, err
			}
			return revenue, expense, err
		}

		target := revenue
		if side == "expense" {
			target = expense
		}
		if target.Empty() {
			printInfof(ctx.Stdout, "no %s titles for this shop", side)
			continue
		}

		ti, pi, err := selectCell(target)
		if err != nil {
			return nil, nil, err
		}

		current := grid.FormatAmount(target.AmountAt(ti, pi))
		raw := current
		input := huh.NewInput().
			Title(fmt.Sprintf("%s, %s", target.Titles()[ti].Name, target.Periods()[pi].Label())).
			Description("Empty clears the cell.").
			Value(&raw)
		if err := input.Run(); err != nil {
			return nil, nil, fmt.Errorf("failed to read amount: %w", err)
		}

		edited := target.SetCellAt(ti, pi, raw)
		if edited != target {
			dirty = true
		}
		if side == "expense" {
			expense = edited
		} else {
			revenue = edited
		}

		fmt.Fprintln(ctx.Stdout)
		edited.Render(ctx.Stdout, styles)
		fmt.Fprintln(ctx.Stdout)
	}
}

// selectSide asks which half of the ledger to edit. Empty means done.
func selectSide() (string, error) {
	var side string
	form := huh.NewSelect[string]().
		Title("What do you want to edit?").
		Options(
			huh.NewOption("Revenues", "revenue"),
			huh.NewOption("Expenses", "expense"),
			huh.NewOption("Done", ""),
		).
		Value(&side)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("failed to read selection: %w", err)
	}
	return side, nil
}

// selectCell asks for a title and a period within the grid.
func selectCell(m *grid.Model) (ti, pi int, err error) {
	titleOpts := make([]huh.Option[int], len(m.Titles()))
	for i, title := range m.Titles() {
		titleOpts[i] = huh.NewOption(fmt.Sprintf("%s %s", title.Code, title.Name), i)
	}
	periodOpts := make([]huh.Option[int], len(m.Periods()))
	for i, period := range m.Periods() {
		periodOpts[i] = huh.NewOption(period.Label(), i)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().Title("Account title").Options(titleOpts...).Value(&ti),
			huh.NewSelect[int]().Title("Period").Options(periodOpts...).Value(&pi),
		),
	)
	if err := form.Run(); err != nil {
		return 0, 0, fmt.Errorf("failed to read selection: %w", err)
	}
	return ti, pi, nil
}
