package main

import (
	"context"

	"github.com/alecthomas/kong"
)

type cli struct {
	Config string `short:"c" type:"path" env:"MESSMASS_CONFIG" help:"Path to a YAML configuration file."`

	Serve     serveCmd     `cmd:"" help:"Run the admin API server."`
	Migrate   migrateCmd   `cmd:"" help:"Manage the SQLite schema."`
	Seed      seedCmd      `cmd:"" help:"Seed system variables into the configured store."`
	Variables variablesCmd `cmd:"" help:"Maintain variable manifests."`
}

func main() {
	var root cli
	ctx := kong.Parse(&root,
		kong.Name("messmass-admin"),
		kong.Description("Admin server and tooling for MessMass event statistics."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
	err := ctx.Run(&root)
	ctx.FatalIfErrorf(err)
}
