package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeja2023/tp/bleve"
	"github.com/jeja2023/tp/bolt"
	"github.com/jeja2023/tp/clients"
	authClient "github.com/jeja2023/tp/clients/auth"
	imageClient "github.com/jeja2023/tp/clients/image"
	taskClient "github.com/jeja2023/tp/clients/task"
	trajectoryClient "github.com/jeja2023/tp/clients/trajectory"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/mapview"
	"github.com/jeja2023/tp/notify"
	"github.com/jeja2023/tp/session"
	"github.com/jeja2023/tp/state"
	"github.com/jeja2023/tp/tasks"
	"github.com/jeja2023/tp/timing"
	"github.com/jeja2023/tp/trajectory"
	"github.com/jeja2023/tp/upload"
)

// application holds everything a command needs. It is built once per run.
type application struct {
	driver *bolt.Driver
	index  *bleve.TaskIndex

	state    *state.App
	notifier *notify.Notifier

	sessions *bolt.SessionStore
	files    *bolt.FileStore

	session *session.Manager
	tasks   *tasks.Controller
	upload  *upload.Controller
	overlay *mapview.Overlay
	exports *trajectory.Controller
}

var app *application

func openApplication(cfg Configuration) (*application, error) {
	timeout, err := cfg.timeout()
	if err != nil {
		return nil, errors.New("invalid api timeout "+cfg.API.Timeout, errors.WithCause(err))
	}

	a := &application{
		driver:   &bolt.Driver{},
		index:    &bleve.TaskIndex{},
		state:    state.New(),
		notifier: notify.New(os.Stderr, logger),
	}

	if err := a.driver.Open(cfg.Bolt.Store); err != nil {
		return nil, errors.New("could not open store", errors.WithCause(err))
	}
	if err := a.index.Open(cfg.Bleve.Store); err != nil {
		a.driver.Close()
		return nil, errors.New("could not open index", errors.WithCause(err))
	}

	a.sessions = &bolt.SessionStore{Driver: a.driver}
	a.files = &bolt.FileStore{Driver: a.driver}

	httpClient := clients.NewHTTPClient(timeout)
	client := clients.NewClient(httpClient, a.sessions, logger)

	base := cfg.API.URL
	auth := authClient.NewClient(client, httpClient, base)
	taskAPI := taskClient.NewClient(client, base)

	a.session = session.NewManager(a.sessions, auth, a.state, a.notifier, logger)
	// Concurrent calls rejected together clear the session and warn only once.
	client.OnUnauthorized(timing.Throttle(time.Second, a.session.Invalidate))

	a.tasks = tasks.NewController(taskAPI, &bolt.TaskStore{Driver: a.driver}, a.index, a.state, a.notifier, logger)
	a.upload = upload.NewController(imageClient.NewClient(client, base), taskAPI, a.state, a.notifier, logger)
	a.overlay = mapview.New(cfg.Map.mapview(), taskAPI, a.state, a.notifier, logger)
	a.exports = trajectory.NewController(trajectoryClient.NewClient(client, base), a.files, trajectory.BrowserOpener{}, a.notifier, logger)

	return a, nil
}

func (a *application) Close() {
	if err := a.index.Close(); err != nil {
		logger.Errorf("could not close index: %v", err)
	}
	if err := a.driver.Close(); err != nil {
		logger.Errorf("could not close store: %v", err)
	}
}

func closeApplication() {
	if app != nil {
		app.exports.Wait()
		app.Close()
		app = nil
	}
}

// setup loads the configuration and builds the application.
func setup(cmd *cobra.Command, args []string) {
	cfg, err := loadConfiguration(configFile)
	if err != nil {
		logger.Fatal("could not read configuration: ", err)
	}
	config = cfg

	app, err = openApplication(cfg)
	if err != nil {
		logger.Fatal(err)
	}
}

// requireSession checks the stored session against the backend. Every command but
// login, register and config goes through it.
func requireSession(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	view, err := app.session.CheckAuthStatus(ctx)
	if err != nil {
		logger.Fatal("could not check session: ", errors.Message(err))
	}
	if view != session.ViewMain {
		logger.Fatal("not logged in, run tp login first")
	}
}
