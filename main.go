package main

import (
	"os"

	"github.com/DiverseStardewValley/dsv-scripts/commands"
	"github.com/symfony-cli/console"
	"github.com/symfony-cli/terminal"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmds := commands.All()
	app := &console.Application{
		Name:     "dsv-scripts",
		Usage:    "A toolkit of file-processing commands for Diverse Stardew Valley mod development.",
		Version:  version,
		Commands: cmds,
	}

	// Anything that is not a registered command name, including no arguments
	// at all, gets the overview panel.
	if len(os.Args) < 2 || commandFor(cmds, os.Args[1]) == nil {
		printHelp(os.Stdout, app.Usage, cmds)
		return
	}

	if err := app.Run(os.Args); err != nil {
		terminal.Eprintfln("<fg=red>%s</>", err)
		os.Exit(1)
	}
}

func commandFor(cmds []*console.Command, name string) *console.Command {
	for _, cmd := range cmds {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}
