package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/benjamonnguyen/dynsched"
	"github.com/benjamonnguyen/dynsched/api"
	"github.com/benjamonnguyen/dynsched/charmlog"
	"github.com/benjamonnguyen/dynsched/session"
	"github.com/benjamonnguyen/dynsched/sqlite"
)

const cmdTimeout = 10 * time.Second

func main() {
	// conf
	conf, err := dynsched.LoadConfig(dynsched.DefaultConfFile())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.MkdirAll(path.Dir(conf.LogPath), 0o744); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	f, err := os.OpenFile(conf.LogPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o666)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close() //nolint:errcheck
	logger := charmlog.NewLogger(charmlog.Options{Writer: f, Level: conf.LogLevel})
	logger.Info("loaded config", "config", conf)

	// db
	db, err := sqlite.Open(conf.DatabaseURL)
	if err != nil {
		logger.Error("failed database open", "error", err)
		os.Exit(1)
	}
	defer db.Close() //nolint:errcheck
	if err := db.Migrate(sqlite.Migrations); err != nil {
		logger.Error("failed migration", "error", err)
		os.Exit(1)
	}

	// svcs
	client := api.NewClient(conf.APIURL, logger)
	sessions := session.NewStore(sqlite.NewKeyValueStore(db.DB(), logger), client, logger)
	client.UseTokenSource(sessions)

	timeout, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()
	if err := sessions.Initialize(timeout); err != nil {
		logger.Error("failed restoring session", "error", err)
		os.Exit(1)
	}

	a := newApp(logger, sessions, client, client, client, conf.TimeFormat)

	// handle initial args
	if len(os.Args) > 1 {
		os.Exit(runArgs(timeout, a, os.Args[1:]))
	}

	// start program
	p := tea.NewProgram(newModel(logger, a, cmdTimeout))
	if _, err := p.Run(); err != nil {
		logger.Error(err.Error())
	}
}

// runArgs executes a single command and returns the exit code.
func runArgs(ctx context.Context, a *app, args []string) int {
	if !strings.HasPrefix(args[0], "/") {
		fmt.Println(colorize(colorYellow, programUsage))
		return 2
	}

	if args[0] == "/q" {
		return 0
	}

	res := a.run(ctx, strings.Join(args, " "))
	if res.err != nil {
		fmt.Fprintln(os.Stderr, colorize(colorRed, dynsched.Message(res.err)))
		return 1
	}
	fmt.Println(res.output)
	return 0
}
