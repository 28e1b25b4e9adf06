package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"geosat/internal/app"
	"geosat/internal/common"
	"geosat/internal/config"
	"geosat/internal/logging"
)

// Version is set with -ldflags "-X geosat/cmd.Version=..."
var Version = "0.0.0-dev"

// cli carries state shared by subcommands of one invocation
type cli struct {
	configPath string
	logLevel   string
	logFormat  string
	logFile    string

	settings  *config.Settings
	app       *app.App
	logCloser io.Closer
}

// NewRootCommand builds the geosat command tree
func NewRootCommand() *cobra.Command {
	_, root := newCLI()
	return root
}

// newCLI builds the command tree and the state it shares. The caller
// releases that state with teardown once the command returns.
func newCLI() (*cli, *cobra.Command) {
	c := &cli{}

	root := &cobra.Command{
		Use:           "geosat",
		Short:         "Fetch georeferenced satellite imagery for a drawing area",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "settings file (default ~/.geosat/settings.yaml)")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&c.logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&c.logFile, "log-file", "", "also write logs to this rotating file")

	root.AddCommand(
		newFetchCommand(c),
		newCRSCommand(c),
		newCacheCommand(c),
		newLayersCommand(c),
		newConfigCommand(c),
	)
	return c, root
}

func (c *cli) setup(cmd *cobra.Command) error {
	settings, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		settings.Log.Level = c.logLevel
	}
	if flags.Changed("log-format") {
		settings.Log.Format = c.logFormat
	}
	if flags.Changed("log-file") {
		settings.Log.File = c.logFile
	}

	closer, err := logging.Setup(logging.Options{
		Level:      settings.Log.Level,
		Format:     settings.Log.Format,
		File:       settings.Log.File,
		MaxSizeMB:  settings.Log.MaxSizeMB,
		MaxBackups: settings.Log.MaxBackups,
		MaxAgeDays: settings.Log.MaxAgeDays,
		Compress:   settings.Log.Compress,
	})
	if err != nil {
		return err
	}

	c.settings = settings
	c.logCloser = closer
	c.app = app.New(settings, c.settingsPath())
	return nil
}

func (c *cli) teardown() error {
	var errs []error
	if c.app != nil {
		errs = append(errs, c.app.Close())
		c.app = nil
	}
	if c.logCloser != nil {
		errs = append(errs, c.logCloser.Close())
		c.logCloser = nil
	}
	return errors.Join(errs...)
}

func (c *cli) settingsPath() string {
	if c.configPath != "" {
		return c.configPath
	}
	return config.GetSettingsPath()
}

// Execute runs the root command and reports failures on stderr
func Execute() int {
	c, root := newCLI()
	err := root.Execute()
	if closeErr := c.teardown(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := describeError(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		return 1
	}
	return 0
}

// describeError suggests a next step for the typed failures users can act on
func describeError(err error) string {
	var (
		authErr  *common.AuthError
		fetchErr *common.FetchError
		projErr  *common.ProjectionError
		cacheErr *common.CacheIOError
	)
	switch {
	case errors.Is(err, common.ErrCancelled):
		return "The run was cancelled. Cached tiles are kept and reused next time."
	case errors.As(err, &authErr):
		return fmt.Sprintf("Check the %s credentials in %s or the GEOSAT_* environment.",
			common.ProviderDisplayName(authErr.Provider), config.GetSettingsPath())
	case errors.As(err, &fetchErr) && fetchErr.RetryAfter != "":
		return fmt.Sprintf("%s is throttling requests; retry after %s.",
			common.ProviderDisplayName(fetchErr.Provider), fetchErr.RetryAfter)
	case errors.As(err, &fetchErr) && (fetchErr.Status == 401 || fetchErr.Status == 403):
		return "The provider rejected the credentials or the tileset is not accessible."
	case errors.As(err, &projErr):
		return "Check that the coordinates are in the drawing CRS (see `geosat crs show`)."
	case errors.As(err, &cacheErr):
		return "The tile cache is not writable; see `geosat cache stats` for its location."
	}
	return ""
}
