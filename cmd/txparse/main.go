/*Command line access to the transaction parser*/
package main

import (
	"github.com/alecthomas/kong"
)

// globals holds options shared by every command
type globals struct {
	EnvFile string `name:"env-file" default:".env" help:"Optional env file read before the environment."`
	Pretty  bool   `help:"Indent JSON output."`
}

// cli commands / args available
var cli struct {
	Globals globals `embed`

	Parse     parseCmd     `cmd help:"Send text to the configured model and print the parse result."`
	Normalize normalizeCmd `cmd help:"Normalize a raw model reply without calling any model."`
	Prompt    promptCmd    `cmd help:"Print the system instruction sent to the model."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("txparse"),
		kong.Description("Turn free text like \"coffee 4.50 at starbucks\" into a transaction."),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
