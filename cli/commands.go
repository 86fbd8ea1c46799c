package cli

// Globals defines global flags available to all commands.
type Globals struct {
	Debug     bool `help:"Enable debug logging on stderr."`
	Telemetry bool `help:"Show timing telemetry for operations."`
}

type Commands struct {
	Globals

	Login    LoginCmd    `cmd:"" help:"Log in and persist the session token."`
	Logout   LogoutCmd   `cmd:"" help:"Log out and clear the session token."`
	Whoami   WhoamiCmd   `cmd:"" help:"Show the identity behind the current session."`
	Register RegisterCmd `cmd:"" help:"Register a new account."`
	Shop     ShopCmd     `cmd:"" help:"Manage shops."`
	Entries  EntriesCmd  `cmd:"" help:"View and edit a shop's ledger entries."`
}
