package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/titanous/json5"
)

var minifyJSONSpec = Spec{
	Name:       "minify-json",
	Usage:      "Saves minified copies of JSON/JSON5 files",
	Extensions: []string{"json", "json5"},
	WithCopy:   true,
	WithForce:  true,
	Run:        runMinifyJSON,
}

func runMinifyJSON(inv *Invocation) (Result, error) {
	var res Result
	var bytesSaved int64

	for _, pair := range inv.Pairs {
		in, err := os.ReadFile(pair.Input)
		if err != nil {
			inv.Log.Error().Err(err).Str("path", displayPath(pair.Input)).Msg("could not read file")
			res.Warnings++
			continue
		}

		copying := inv.ShouldCopy(pair.Input)
		out := in
		if !copying {
			out, err = minifyJSON(in, strings.EqualFold(filepath.Ext(pair.Input), ".json5"))
			if err != nil {
				inv.Log.Error().Err(err).Str("path", displayPath(pair.Input)).Msg("could not minify file")
				res.Warnings++
				continue
			}
		}

		display := displayPath(pair.Output)
		if fileHasContent(pair.Output, out) {
			inv.Log.Debug().Str("path", display).Msg("no change")
			continue
		}

		if copying {
			fmt.Fprintf(inv.Out, "<fg=magenta>>>Copying:</> %s\n", display)
		} else {
			fmt.Fprintf(inv.Out, "<comment>Minifying:</> %s\n", display)
		}
		if err := os.WriteFile(pair.Output, out, 0644); err != nil {
			inv.Log.Error().Err(err).Str("path", display).Msg("could not write file")
			res.Warnings++
			continue
		}
		res.Changed++

		if !copying {
			saved := int64(len(in)) - int64(len(out))
			bytesSaved += saved
			switch {
			case saved < 0:
				inv.Log.Warn().Msgf("Minified file is %s larger than the original file.", humanize.IBytes(uint64(-saved)))
				res.Warnings++
			case saved == 0:
				inv.Log.Warn().Msg("Minified file is no smaller than the original file.")
				res.Warnings++
			default:
				inv.Log.Debug().Int("before", len(in)).Int("after", len(out)).Str("path", display).Msg("minified")
			}
		}
	}

	printTaskSummary(inv.Out, "Minification", res, bytesSaved)
	return res, nil
}

// minifyJSON compacts src without a trailing newline. Strict JSON is
// minified textually so key order survives; JSON5 input (or JSON that only
// parses leniently) is decoded and re-encoded as plain compact JSON.
func minifyJSON(src []byte, json5Input bool) ([]byte, error) {
	if !json5Input && gjson.ValidBytes(src) {
		return pretty.Ugly(src), nil
	}

	var value interface{}
	if err := json5.Unmarshal(src, &value); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
