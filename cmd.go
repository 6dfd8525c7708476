package main

import (
	"github.com/spf13/cobra"

	"github.com/khaledhikmat/vision-go/service/config"
)

const version = "0.1.0"

type options struct {
	overrides config.Overrides
	debug     bool
}

var modeUsage = []struct {
	name  string
	short string
}{
	{"assistant", "Serve the browser dashboard with live preview and frame descriptions"},
	{"console", "Print frame descriptions to the terminal"},
	{"check", "Validate the vision API key and exit"},
}

// newRootCmd builds the CLI. run starts the named mode with the parsed options.
func newRootCmd(run func(modeType string, opts options) error) *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           "vision-go",
		Short:         "Describe what a camera sees with a vision language model",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Without a subcommand run the dashboard
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run("assistant", opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.overrides.APIKey, "api-key", "", "vision API key (default $VISION_API_KEY)")
	flags.StringVar(&opts.overrides.Endpoint, "endpoint", "", "chat completions endpoint (default $VISION_ENDPOINT or OpenRouter)")
	flags.StringVar(&opts.overrides.Model, "model", "", "vision model identifier (default $VISION_MODEL)")
	flags.StringVarP(&opts.overrides.Prompt, "prompt", "p", "", "question asked about every sampled frame")
	flags.IntVarP(&opts.overrides.Stride, "stride", "n", 0, "analyze every nth frame (default 30)")
	flags.StringVarP(&opts.overrides.Device, "device", "d", "", "camera index or capture URL (default 0)")
	flags.StringVar(&opts.overrides.FramerType, "framer", "", "frame source: device or random")
	flags.StringVar(&opts.overrides.WebPort, "port", "", "dashboard port (default 8080)")
	flags.BoolVar(&opts.debug, "debug", false, "log at debug level")

	for _, m := range modeUsage {
		root.AddCommand(newModeCmd(m.name, m.short, &opts, run))
	}

	return root
}

func newModeCmd(name, short string, opts *options, run func(string, options) error) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(name, *opts)
		},
	}
}
