// Package cli implements screenctl, the command line front end to the
// scoring engine and the catalog checker.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rishicodesforfun/menta-question/internal/config"
	"github.com/rishicodesforfun/menta-question/internal/domain"
	"github.com/rishicodesforfun/menta-question/internal/logging"
	"github.com/rishicodesforfun/menta-question/internal/service"
)

// options holds the persistent flags shared by every subcommand
type options struct {
	configFile string
	catalogDir string
	pattern    string
	jsonOutput bool

	catalog domain.CatalogConfig
}

// NewRootCommand builds the screenctl command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "screenctl",
		Short: "Score mental-health screening questionnaires",
		Long: `screenctl scores answer vectors against the instrument catalog and checks
catalog definitions for configuration errors.

By default the embedded catalog is used. Point --catalog at a directory of
YAML or JSON instrument files to use an on-disk catalog instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.resolve(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Config file (searches ./config.yaml by default)")
	root.PersistentFlags().StringVar(&opts.catalogDir, "catalog", "", "Catalog directory (embedded catalog if not specified)")
	root.PersistentFlags().StringVar(&opts.pattern, "pattern", "", "Glob selecting instrument files below the catalog directory")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print JSON instead of styled text")

	root.AddCommand(
		newListCommand(opts),
		newDescribeCommand(opts),
		newScoreCommand(opts),
		newCheckCommand(opts),
	)
	return root
}

// resolve merges the config file and environment with the flags, flags
// taking precedence.
func (o *options) resolve(cmd *cobra.Command) error {
	manager, err := config.NewManagerFromFile(o.configFile)
	if err != nil {
		return err
	}
	o.catalog = manager.GetConfig().Catalog
	if cmd.Flags().Changed("catalog") {
		o.catalog.Dir = o.catalogDir
	}
	if cmd.Flags().Changed("pattern") {
		o.catalog.Pattern = o.pattern
	}
	return nil
}

// screening builds a stateless service over the selected catalog
func (o *options) screening() (*service.ScreeningService, error) {
	logger := logging.Discard()
	registry, err := service.NewRegistry(o.catalog, logger)
	if err != nil {
		return nil, err
	}
	return service.NewScreeningService(logger, registry, nil), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
