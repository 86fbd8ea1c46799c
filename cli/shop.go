package cli

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/MasatoraSakikoyama/supermarket-task-client/api"
	"github.com/MasatoraSakikoyama/supermarket-task-client/pager"
)

type ShopCmd struct {
	List   ShopListCmd   `cmd:"" help:"List shops."`
	Show   ShopShowCmd   `cmd:"" help:"Show a single shop."`
	Create ShopCreateCmd `cmd:"" help:"Create a shop."`
	Edit   ShopEditCmd   `cmd:"" help:"Edit a shop."`
	Delete ShopDeleteCmd `cmd:"" help:"Delete a shop."`
}

type ShopListCmd struct {
	Offset int  `help:"Window offset into the shop list." default:"0"`
	Limit  int  `help:"Page size (defaults to PAGE_SIZE)."`
	All    bool `help:"Page through every shop." short:"a"`
}

func (cmd *ShopListCmd) Run(ctx *kong.Context, globals *Globals) error {
	app, err := newApp(globals, ctx.Stdout, ctx.Stderr)
	if err != nil {
		return err
	}
	defer app.reportTelemetry()

	runCtx := app.runContext()
	if err := app.requireSession(runCtx); err != nil {
		return err
	}

	limit := cmd.Limit
	if limit <= 0 {
		limit = app.Config.PageSize
	}
	window := pager.New(limit)
	window.Seek(cmd.Offset)

	var shops []api.ShopResponse
	for {
		page, err := app.ShopPage(runCtx, window.Offset(), window.Limit())
		if err != nil {
			return app.commandFailure(err)
		}
		window.Observe(len(page))
		shops = append(shops, page...)

		if !cmd.All || !window.Next() {
			break
		}
	}

	if len(shops) == 0 {
		printInfof(ctx.Stdout, "no shops")
		return nil
	}

	renderShopTable(ctx, shops)

	if !cmd.All {
		printInfof(ctx.Stdout, "page %d", window.Page())
		if window.HasMore() {
			printInfof(ctx.Stdout, "more shops may exist, pass --offset %d for the next page", window.Offset()+window.Limit())
		}
	}
	return nil
}

func renderShopTable(ctx *kong.Context, shops []api.ShopResponse) {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "DESCRIPTION", "UPDATED")
	for _, shop := range shops {
		tbl.Row(
			strconv.FormatInt(shop.ID, 10),
			shop.Name,
			stringOrDash(shop.Description),
			shop.UpdatedAt,
		)
	}
	_, _ = fmt.Fprintln(ctx.Stdout, tbl)
}

type ShopShowCmd struct {
	ID int64 `arg:"" help:"Shop id."`
}

func (cmd *ShopShowCmd) Run(ctx *kong.Context, globals *Globals) error {
	app, err := newApp(globals, ctx.Stdout, ctx.Stderr)
	if err != nil {
		return err
	}
	defer app.reportTelemetry()

	runCtx := app.runContext()
	if err := app.requireSession(runCtx); err != nil {
		return err
	}

	shop, err := app.Shop(runCtx, cmd.ID)
	if err != nil {
		return app.commandFailure(err)
	}

	_, _ = fmt.Fprintf(ctx.Stdout, "%s (#%d)\n", nameStyle.Render(shop.Name), shop.ID)
	_, _ = fmt.Fprintf(ctx.Stdout, "description: %s\n", stringOrDash(shop.Description))
	if shop.CreatedAt != "" {
		_, _ = fmt.Fprintf(ctx.Stdout, "created:     %s\n", shop.CreatedAt)
	}
	if shop.UpdatedAt != "" {
		_, _ = fmt.Fprintf(ctx.Stdout, "updated:     %s\n", shop.UpdatedAt)
	}
	return nil
}

type ShopCreateCmd struct {
	Name        string `help:"Shop name (prompted when omitted)."`
	Description string `help:"Shop description."`
}

func (cmd *ShopCreateCmd) Run(ctx *kong.Context, globals *Globals) error {
	app, err := newApp(globals, ctx.Stdout, ctx.Stderr)
	if err != nil {
		return err
	}
	defer app.reportTelemetry()

	runCtx := app.runContext()
	if err := app.requireSession(runCtx); err != nil {
		return err
	}

	if cmd.Name == "" {
		if !isTerminal() {
			printError(ctx.Stderr, "missing shop name, pass --name")
			return NewCommandError(ExitFailure)
		}
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Name").Value(&cmd.Name),
			huh.NewInput().Title("Description").Value(&cmd.Description),
		))
		if err := form.Run(); err != nil {
			return fmt.Errorf("failed to read shop details: %w", err)
		}
	}

	req := api.ShopCreate{Name: cmd.Name}
	if cmd.Description != "" {
		req.Description = &cmd.Description
	}

	res := app.Client.CreateShop(runCtx, req)
	if !res.OK() {
		return app.resultErr(res.Kind(), res.Error)
	}

	app.InvalidateShop(res.Data.ID)
	printSuccess(ctx.Stdout, fmt.Sprintf("Created %s (#%d)", nameStyle.Render(res.Data.Name), res.Data.ID))
	return nil
}

type ShopEditCmd struct {
	ID          int64   `arg:"" help:"Shop id."`
	Name        *string `help:"New shop name."`
	Description *string `help:"New shop description."`
}

func (cmd *ShopEditCmd) Run(ctx *kong.Context, globals *Globals) error {
	app, err := newApp(globals, ctx.Stdout, ctx.Stderr)
	if err != nil {
		return err
	}
	defer app.reportTelemetry()

	runCtx := app.runContext()
	if err := app.requireSession(runCtx); err != nil {
		return err
	}

	if cmd.Name == nil && cmd.Description == nil {
		if !isTerminal() {
			printError(ctx.Stderr, "nothing to change, pass --name or --description")
			return NewCommandError(ExitFailure)
		}

		current, err := app.Shop(runCtx, cmd.ID)
		if err != nil {
			return app.commandFailure(err)
		}

		name := current.Name
		description := ""
		if current.Description != nil {
			description = *current.Description
		}
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Name").Value(&name),
			huh.NewInput().Title("Description").Value(&description),
		))
		if err := form.Run(); err != nil {
			return fmt.Errorf("failed to read shop details: %w", err)
		}
		cmd.Name = &name
		cmd.Description = &description
	}

	res := app.Client.UpdateShop(runCtx, cmd.ID, api.ShopUpdate{
		Name:        cmd.Name,
		Description: cmd.Description,
	})
	if !res.OK() {
		return app.resultErr(res.Kind(), res.Error)
	}

	app.InvalidateShop(cmd.ID)
	printSuccess(ctx.Stdout, fmt.Sprintf("Updated %s (#%d)", nameStyle.Render(res.Data.Name), res.Data.ID))
	return nil
}

type ShopDeleteCmd struct {
	ID  int64 `arg:"" help:"Shop id."`
	Yes bool  `help:"Skip the confirmation prompt." short:"y"`
}

func (cmd *ShopDeleteCmd) Run(ctx *kong.Context, globals *Globals) error {
	app, err := newApp(globals, ctx.Stdout, ctx.Stderr)
	if err != nil {
		return err
	}
	defer app.reportTelemetry()

	runCtx := app.runContext()
	if err := app.requireSession(runCtx); err != nil {
		return err
	}

	if !cmd.Yes {
		confirmed, err := promptYesNo(fmt.Sprintf("Delete shop #%d and all its entries?", cmd.ID))
		if err != nil {
			return err
		}
		if !confirmed {
			printInfof(ctx.Stdout, "aborted")
			return nil
		}
	}

	res := app.Client.DeleteShop(runCtx, cmd.ID)
	if !res.OK() {
		return app.resultErr(res.Kind(), res.Error)
	}

	app.InvalidateShop(cmd.ID)
	printSuccess(ctx.Stdout, fmt.Sprintf("Deleted shop #%d", cmd.ID))
	return nil
}

func stringOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
