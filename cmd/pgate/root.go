package main

import (
	"errors"
	"fmt"

	"github.com/koustreak/pgate/internal/config"
	"github.com/koustreak/pgate/internal/database"
	"github.com/koustreak/pgate/internal/database/mysql"
	"github.com/koustreak/pgate/internal/database/postgres"
	"github.com/koustreak/pgate/internal/errs"
	"github.com/koustreak/pgate/internal/logger"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitSuccess         = 0
	exitGeneralError    = 1
	exitConfigError     = 10
	exitConnectionError = 11
)

var errConfig = errors.New("invalid configuration")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pgate",
		Short: "Resolve database connection settings and check they work",
		Long: `pgate resolves connection settings from a YAML file, $DATABASE_URL,
libpq environment variables (PGHOST, PGPORT, PGUSER, PGPASSWORD, PGDATABASE,
PGSSLMODE, PGCONNECT_TIMEOUT) and flags, then opens a connection through the
matching driver and reports failures as severity/code/description.

The driver comes from --driver, the --url scheme, or the config file, in that
order. $DATABASE_URL is used only when its scheme matches the driver, and the
PG* variables apply to postgres only. MySQL defaults to port 3306.

Exit Codes:
  0  - Success
  1  - General error
  10 - Invalid configuration
  11 - Database connection failed`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.String("config", "", "Path to a YAML config file")
	f.StringSlice("env-file", nil, "Load .env files before reading the environment (default .env)")
	f.String("driver", "", "Database driver: postgres or mysql")
	f.String("url", "", "Connection URL (postgres://… or mysql://…)")
	f.StringP("host", "H", "", "Database host")
	f.IntP("port", "p", 0, "Database port")
	f.StringP("username", "U", "", "Database user")
	f.StringP("dbname", "d", "", "Database name")
	f.String("tls", "", "TLS mode: off, on, required")
	f.Duration("connect-timeout", 0, "Connection timeout, e.g. 5s")
	f.String("log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(newCheckCmd(), newServeCmd())
	return root
}

// setup is everything a subcommand needs after flag parsing.
type setup struct {
	cfg    *database.Config
	driver database.Driver
	log    *logger.Logger
	gw     *database.Gateway
}

// newSetup layers file, environment and flags, resolves defaults, and picks
// a client for the configured driver.
func newSetup(cmd *cobra.Command) (*setup, error) {
	flags := cmd.Flags()

	envFiles, _ := flags.GetStringSlice("env-file")
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	path, _ := flags.GetString("config")
	file, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	fromFlags, urlDriver, err := flagPartial(cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	driver, err := chooseDriver(cmd, urlDriver, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	var partial database.PartialConfig
	if driver == database.DriverMySQL {
		partial.Port = database.Ptr(mysql.DefaultPort)
	}

	fromFile, err := file.Partial()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}
	partial = partial.Merge(fromFile)

	fromEnv, err := config.FromEnvironment(driver)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}
	partial = partial.Merge(fromEnv).Merge(fromFlags)

	logCfg := file.LoggerConfig()
	if lvl, _ := flags.GetString("log-level"); lvl != "" {
		logCfg.Level = lvl
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	var client database.Client
	switch driver {
	case database.DriverMySQL:
		client = mysql.New(log)
	default:
		client = postgres.New()
	}

	return &setup{
		cfg:    database.Resolve(partial),
		driver: driver,
		log:    log,
		gw:     database.NewGateway(client, log),
	}, nil
}

// chooseDriver picks the driver: --driver, then the --url scheme, then the
// config file. The file is not consulted when a flag decides.
func chooseDriver(cmd *cobra.Command, urlDriver database.Driver, file *config.File) (database.Driver, error) {
	if name, _ := cmd.Flags().GetString("driver"); name != "" {
		return config.ParseDriver(name)
	}
	if urlDriver != "" {
		return urlDriver, nil
	}
	return file.DriverName()
}

// flagPartial collects only the flags the user actually set.
func flagPartial(cmd *cobra.Command) (database.PartialConfig, database.Driver, error) {
	var p database.PartialConfig
	var driver database.Driver
	flags := cmd.Flags()

	if flags.Changed("url") {
		raw, _ := flags.GetString("url")
		fromURL, d, err := config.ParseURL(raw)
		if err != nil {
			return p, "", err
		}
		p, driver = fromURL, d
	}

	var keys database.PartialConfig
	if flags.Changed("host") {
		v, _ := flags.GetString("host")
		keys.Host = &v
	}
	if flags.Changed("port") {
		v, _ := flags.GetInt("port")
		keys.Port = &v
	}
	if flags.Changed("username") {
		v, _ := flags.GetString("username")
		keys.Username = &v
	}
	if flags.Changed("dbname") {
		v, _ := flags.GetString("dbname")
		keys.Database = &v
	}
	if flags.Changed("tls") {
		v, _ := flags.GetString("tls")
		mode, ok := database.ParseTLSMode(v)
		if !ok {
			return p, "", fmt.Errorf("invalid --tls value %q", v)
		}
		keys.TLSMode = &mode
	}
	if flags.Changed("connect-timeout") {
		v, _ := flags.GetDuration("connect-timeout")
		keys.ConnectTimeout = &v
	}

	return p.Merge(keys), driver, nil
}

// exitCode maps a command error onto the documented exit codes.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errConfig):
		return exitConfigError
	case errs.IsConnectFailed(err):
		return exitConnectionError
	default:
		return exitGeneralError
	}
}
