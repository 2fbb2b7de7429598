package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/storecount/go-footfall-client/gateway"
	"github.com/storecount/go-footfall-client/internal/config"
	apperrors "github.com/storecount/go-footfall-client/internal/errors"
	"github.com/storecount/go-footfall-client/session"
	"github.com/storecount/go-footfall-client/session/filestorage"
)

const usage = `Usage: dashboard <command> [flags]

Commands:
  login       Authenticate with email, password and emailed pincode
  status      Show the current session
  stores      List stores with cameras
  today       Today's hourly traffic for a store
  day         Traffic for a single day (--store, --date, optional --from/--to)
  period      Daily totals over a date range (--store, --start, --end)
  days        Traffic for selected days (--store, repeated --date)
  export      Write chart data as CSV (same selectors as the query commands)
  account     update-password | update-email | delete
  logout      Clear the stored session
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, apperrors.ErrLoginRequired) {
			// The redirect signal has already printed the login notice.
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		displayAppname(cfg.AppName)
		fmt.Print(usage)
		return nil
	}

	sessions, gw, err := buildClients(cfg, logger)
	if err != nil {
		return err
	}

	app := &app{cfg: cfg, log: logger, sessions: sessions, gw: gw}
	return app.dispatch(context.Background(), args[0], args[1:])
}

func buildClients(cfg *config.Config, logger zerolog.Logger) (*session.Store, *gateway.Client, error) {
	storage := filestorage.New(cfg.SessionFile())

	httpClient := newHTTPClient(cfg.HTTPTimeout)
	sessions, err := session.NewStore(storage, cfg.APIBaseURL,
		session.WithHTTPClient(httpClient),
		session.WithLogger(logger),
		session.WithRedirect(func() {
			fmt.Fprintln(os.Stderr, "Session expired or revoked. Please run `dashboard login`.")
		}),
	)
	if err != nil {
		return nil, nil, err
	}

	gw, err := gateway.New(cfg.APIBaseURL, sessions,
		gateway.WithHTTPClient(httpClient),
		gateway.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	return sessions, gw, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
