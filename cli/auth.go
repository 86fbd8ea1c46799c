package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"

	"github.com/MasatoraSakikoyama/supermarket-task-client/api"
	"github.com/MasatoraSakikoyama/supermarket-task-client/session"
)

type LoginCmd struct {
	Username string `help:"Account username."`
	Email    string `help:"Account email, used instead of the username when set."`
	Password string `help:"Account password (prompted when omitted)." env:"PASSWORD"`
}

func (cmd *LoginCmd) Run(ctx *kong.Context, globals *Globals) error {
	app, err := newApp(globals, ctx.Stdout, ctx.Stderr)
	if err != nil {
		return err
	}
	defer app.reportTelemetry()

	runCtx := app.runContext()
	if err := app.Store.Initialize(runCtx, app.Client); err != nil {
		return err
	}
	if snap := app.Store.Snapshot(); snap.IsAuthenticated {
		// The authenticated analog of landing on the login surface.
		printInfof(ctx.Stdout, "already logged in%s", usernameSuffix(snap.User))
		hintRedirector{out: ctx.Stdout}.ToLanding()
		return nil
	}

	if (cmd.Username == "" && cmd.Email == "") || cmd.Password == "" {
		if !isTerminal() {
			printError(ctx.Stderr, "missing credentials, pass --username/--email and --password")
			return NewCommandError(ExitFailure)
		}
		if err := cmd.promptCredentials(); err != nil {
			return err
		}
	}

	req := api.LoginRequest{Password: cmd.Password}
	if cmd.Email != "" {
		req.Email = cmd.Email
	} else {
		req.Username = cmd.Username
	}

	if err := app.Store.Login(runCtx, app.Client, req); err != nil {
		printError(ctx.Stderr, err.Error())
		return NewCommandError(ExitFailure)
	}

	printSuccess(ctx.Stdout, "Logged in")
	return nil
}

func (cmd *LoginCmd) promptCredentials() error {
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Username or email").
			Value(&cmd.Username),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&cmd.Password),
	))
	if err := form.Run(); err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}
	if strings.ContainsRune(cmd.Username, '@') {
		cmd.Email = cmd.Username
		cmd.Username = ""
	}
	return nil
}

type LogoutCmd struct{}

func (cmd *LogoutCmd) Run(ctx *kong.Context, globals *Globals) error {
	app, err := newApp(globals, ctx.Stdout, ctx.Stderr)
	if err != nil {
		return err
	}
	defer app.reportTelemetry()

	runCtx := app.runContext()
	if err := app.Store.Initialize(runCtx, app.Client); err != nil {
		return err
	}
	if snap := app.Store.Snapshot(); snap.State == session.Anonymous {
		printInfof(ctx.Stdout, "not logged in")
		return nil
	}

	app.Store.Logout(runCtx, app.Client)
	printSuccess(ctx.Stdout, "Logged out")
	return nil
}

type WhoamiCmd struct{}

func (cmd *WhoamiCmd) Run(ctx *kong.Context, globals *Globals) error {
	app, err := newApp(globals, ctx.Stdout, ctx.Stderr)
	if err != nil {
		return err
	}
	defer app.reportTelemetry()

	runCtx := app.runContext()
	if err := app.requireSession(runCtx); err != nil {
		return err
	}

	snap := app.Store.Snapshot()
	if snap.User == nil {
		printInfof(ctx.Stdout, "logged in, identity not confirmed (server unreachable)")
	} else {
		printInfof(ctx.Stdout, "logged in as %s <%s>", nameStyle.Render(snap.User.Username), snap.User.Email)
	}
	if !snap.TokenIssuedAt.IsZero() {
		printInfof(ctx.Stdout, "session age: %s", time.Since(snap.TokenIssuedAt).Round(time.Minute))
	}
	return nil
}

type RegisterCmd struct {
	Username string `help:"Desired username."`
	Email    string `help:"Account email."`
	Password string `help:"Account password (prompted when omitted)." env:"PASSWORD"`
}

func (cmd *RegisterCmd) Run(ctx *kong.Context, globals *Globals) error {
	app, err := newApp(globals, ctx.Stdout, ctx.Stderr)
	if err != nil {
		return err
	}
	defer app.reportTelemetry()

	if cmd.Username == "" || cmd.Email == "" || cmd.Password == "" {
		if !isTerminal() {
			printError(ctx.Stderr, "missing fields, pass --username, --email and --password")
			return NewCommandError(ExitFailure)
		}
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Username").Value(&cmd.Username),
			huh.NewInput().Title("Email").Value(&cmd.Email),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&cmd.Password),
		))
		if err := form.Run(); err != nil {
			return fmt.Errorf("failed to read account details: %w", err)
		}
	}

	res := app.Client.Register(app.runContext(), api.UserCreate{
		Username: cmd.Username,
		Email:    cmd.Email,
		Password: cmd.Password,
	})
	if !res.OK() {
		printError(ctx.Stderr, res.Error)
		return NewCommandError(ExitFailure)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Registered %s, run 'supermarket-task login' to sign in", nameStyle.Render(res.Data.Username)))
	return nil
}

func usernameSuffix(user *api.UserResponse) string {
	if user == nil {
		return ""
	}
	return " as " + nameStyle.Render(user.Username)
}
