package commands

import (
	"fmt"
	"os"

	"github.com/DiverseStardewValley/dsv-scripts/tinify"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

var tinifyPNGsSpec = Spec{
	Name:       "tinify-pngs",
	Usage:      "Saves compressed copies of PNG images",
	Extensions: []string{"png"},
	WithCopy:   true,
	WithForce:  true,
	Run:        runTinifyPNGs,
}

const apiKeyHint = `

You can get a free API key from the TinyPNG website:
https://tinypng.com/developers

Save it in a file named .env with the following format:
TINIFY_API_KEY=PasteYourApiKeyHere

!!! DO NOT COMMIT/SHARE/LEAK YOUR .env FILE !!!`

func runTinifyPNGs(inv *Invocation) (Result, error) {
	var res Result
	var bytesSaved int64

	// Outputs that already exist are never re-compressed; every API call
	// counts against the monthly budget.
	toWrite := make(map[string]bool)
	for _, pair := range inv.Pairs {
		if _, err := os.Stat(pair.Output); err != nil {
			toWrite[pair.Output] = true
		}
	}

	var client *tinify.Client
	if len(toWrite) > 0 {
		var err error
		if client, err = connectTinify(inv); err != nil {
			return Result{}, err
		}
	}

	for _, pair := range inv.Pairs {
		display := displayPath(pair.Output)
		if !toWrite[pair.Output] {
			inv.Log.Debug().Str("path", display).Msg("file already exists")
			continue
		}

		in, err := os.ReadFile(pair.Input)
		if err != nil {
			inv.Log.Error().Err(err).Str("path", displayPath(pair.Input)).Msg("could not read file")
			res.Warnings++
			continue
		}

		if inv.ShouldCopy(pair.Input) {
			fmt.Fprintf(inv.Out, "<fg=magenta>>>Copying:</> %s\n", display)
			if err := os.WriteFile(pair.Output, in, 0644); err != nil {
				inv.Log.Error().Err(err).Str("path", display).Msg("could not write file")
				res.Warnings++
				continue
			}
			res.Changed++
			continue
		}

		fmt.Fprintf(inv.Out, "<comment>Tinifying:</> %s\n", display)
		out, err := client.Compress(in)
		if err != nil {
			inv.Log.Error().Err(err).Str("path", displayPath(pair.Input)).Msg("could not compress file")
			res.Warnings++
			continue
		}
		if err := os.WriteFile(pair.Output, out, 0644); err != nil {
			inv.Log.Error().Err(err).Str("path", display).Msg("could not write file")
			res.Warnings++
			continue
		}
		res.Changed++

		saved := int64(len(in)) - int64(len(out))
		bytesSaved += saved
		switch {
		case saved < 0:
			inv.Log.Warn().Msgf("Tinified file is %s larger than the original file.", humanize.IBytes(uint64(-saved)))
			res.Warnings++
		case saved == 0:
			inv.Log.Warn().Msg("Tinified file is no smaller than the original file.")
			res.Warnings++
		default:
			inv.Log.Debug().Int("before", len(in)).Int("after", len(out)).Str("path", display).Msg("compressed")
		}
	}

	printTaskSummary(inv.Out, "Compression", res, bytesSaved)
	return res, nil
}

// connectTinify loads the API key, checks it against the service, and makes
// sure the monthly compression budget is not already spent. It runs before
// any file is touched.
func connectTinify(inv *Invocation) (*tinify.Client, error) {
	// A missing .env file is fine; the key may come from the environment. Any
	// other load failure means the file exists but cannot be used.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, &SetupError{Reason: fmt.Sprintf("Failed to load .env file: %v", err)}
	}

	key := os.Getenv("TINIFY_API_KEY")
	if key == "" {
		return nil, &SetupError{Reason: "TINIFY_API_KEY environment variable not found." + apiKeyHint}
	}

	client := tinify.NewClient(key, inv.Config.Tinify.Endpoint)
	left, err := client.Validate()
	if err != nil {
		inv.Log.Debug().Err(err).Msg("key validation failed")
		return nil, &SetupError{Reason: "Validation of Tinify API key failed." + apiKeyHint}
	}
	if left == 0 {
		return nil, &SetupError{Reason: "No more Tinify compressions remaining for this month."}
	}

	fmt.Fprintf(inv.Out, "Successfully connected to Tinify. <info>%d compression%s</> remaining for this month.\n", left, pluralS(left))
	return client, nil
}
