// Package app wires the identity client, the session gate, the task API
// and the task store into one client.
package app

import (
	"context"
	"net/http"

	"taskdeck/pkg/api"
	"taskdeck/pkg/config"
	"taskdeck/pkg/identity"
	"taskdeck/pkg/models"
	"taskdeck/pkg/session"
	"taskdeck/pkg/tasksync"
	"taskdeck/pkg/utils"
)

// App is a configured client
type App struct {
	Config   config.Config
	Styles   config.Styles
	Identity *identity.Client
	Gate     *session.Gate
	API      *api.Client
	Store    *tasksync.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// Option adjusts an App before it is started
type Option func(*options)

type options struct {
	httpClient  *http.Client
	credentials identity.CredentialSource
}

// WithHTTPClient sends identity and API requests through hc
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithCredentials replaces the federated credential source from the config
func WithCredentials(src identity.CredentialSource) Option {
	return func(o *options) {
		o.credentials = src
	}
}

// New builds the client from cfg. Nothing talks to the network until Start.
func New(cfg config.Config, styles config.Styles, opts ...Option) *App {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var creds identity.CredentialSource
	if cfg.Identity.FederatedTokenCommand != "" {
		creds = identity.CommandCredential{Command: cfg.Identity.FederatedTokenCommand}
	}
	if o.credentials != nil {
		creds = o.credentials
	}

	idc := identity.NewClient(identity.Config{
		APIKey:      cfg.Identity.APIKey,
		IdentityURL: cfg.Identity.IdentityURL,
		TokenURL:    cfg.Identity.TokenURL,
		SessionFile: cfg.SessionFile,
		ProviderID:  cfg.Identity.FederatedProvider,
		Credentials: creds,
		HTTPClient:  o.httpClient,
	})

	a := &App{
		Config:   cfg,
		Styles:   styles,
		Identity: idc,
	}

	var apiOpts []api.Option
	if o.httpClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(o.httpClient))
	}
	// The API client reads tokens from the gate, which needs the API client
	// as its registrar.
	a.API = api.NewClient(cfg.APIURL, tokenSource{a}, apiOpts...)
	a.Gate = session.NewGate(idc, a.API)
	a.Store = tasksync.NewStore(a.Gate, a.API)
	return a
}

type tokenSource struct{ app *App }

func (t tokenSource) Token(ctx context.Context) (string, error) {
	return t.app.Gate.Token(ctx)
}

// Start subscribes the gate to the identity client and keeps the store in
// step with the session. notify, if not nil, receives each session change
// after the store has handled it.
func (a *App) Start(ctx context.Context, notify func(session.State, error)) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})

	states, unsubscribe := a.Gate.Subscribe()
	a.Gate.Start(ctx)

	go func() {
		defer close(a.done)
		defer unsubscribe()
		a.Store.Follow(ctx, states, notify)
	}()
	utils.Log("Client started against %s", a.API.BaseURL())
}

// Open starts the app and waits until the saved session, if any, has been
// restored and its tasks loaded. It is used by one-shot commands.
func (a *App) Open(ctx context.Context) (session.State, error) {
	loaded := make(chan error, 1)
	a.Start(ctx, func(st session.State, err error) {
		select {
		case loaded <- err:
		default:
		}
	})

	st, err := a.Gate.WaitReady(ctx)
	if err != nil {
		return st, err
	}
	select {
	case err := <-loaded:
		return st, err
	case <-ctx.Done():
		return st, ctx.Err()
	}
}

// RequireUser is like Open but fails with session.ErrUnauthenticated when
// nobody is signed in
func (a *App) RequireUser(ctx context.Context) (session.Principal, error) {
	if _, err := a.Open(ctx); err != nil {
		return nil, err
	}
	return a.Gate.Principal()
}

// FindTask returns the loaded task with id
func (a *App) FindTask(id int64) (models.Task, error) {
	task, ok := a.Store.Get(id)
	if !ok {
		return models.Task{}, &models.ValidationError{
			Fields: []models.FieldError{{Field: "id", Message: "no task with that id"}},
			Err:    tasksync.ErrTaskNotFound,
		}
	}
	return task, nil
}

// Close stops following the session and unsubscribes from the provider
func (a *App) Close() {
	a.Gate.Close()
	if a.cancel != nil {
		a.cancel()
		<-a.done
	}
}
