package commands

import (
	"bytes"
	"fmt"
	"os"
)

var removeBlankLinesSpec = Spec{
	Name:      "remove-blank-lines",
	Usage:     "Removes blank lines in text-based files",
	WithForce: true,
	Run:       runRemoveBlankLines,
}

func runRemoveBlankLines(inv *Invocation) (Result, error) {
	var res Result

	for _, pair := range inv.Pairs {
		in, err := os.ReadFile(pair.Input)
		if err != nil {
			inv.Log.Error().Err(err).Str("path", displayPath(pair.Input)).Msg("could not read file")
			res.Warnings++
			continue
		}

		// One non-overlapping pass; long runs of blank lines shrink but
		// may need repeated invocations to disappear entirely.
		out := bytes.ReplaceAll(in, []byte("\n\n"), []byte("\n"))

		display := displayPath(pair.Output)
		if fileHasContent(pair.Output, out) {
			inv.Log.Debug().Str("path", display).Msg("no change")
			continue
		}

		fmt.Fprintf(inv.Out, "<comment>Removing blank lines in:</> %s\n", display)
		if err := os.WriteFile(pair.Output, out, 0644); err != nil {
			inv.Log.Error().Err(err).Str("path", display).Msg("could not write file")
			res.Warnings++
			continue
		}
		res.Changed++
	}

	summary := ""
	switch {
	case res.Changed > 0:
		summary = fmt.Sprintf(" Removed blank lines in %d file%s.", res.Changed, pluralS(res.Changed))
	case res.Warnings == 0:
		summary = " (All files were already up-to-date.)"
	}
	fmt.Fprintf(inv.Out, "<info>Task complete.</>%s\n", summary)

	return res, nil
}
