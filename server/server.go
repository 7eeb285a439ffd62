// Package server exposes a query-processing Engine over HTTP: a
// synchronous request/response endpoint, a Server-Sent Events stream for
// incremental results, and a small provider registry so alternative
// transports can be swapped in without touching callers.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/mux"
)

// Config configures a ServerAdapter built through the registry.
type Config struct {
	Hooks Hooks
}

// ServerAdapter wires Engines and plain http.Handlers onto routes and runs
// the resulting server.
type ServerAdapter interface {
	RegisterEngine(path string, e Engine) error
	RegisterHandler(path string, handler http.Handler) error
	Serve(ctx context.Context, addr string) error
	Shutdown(ctx context.Context) error
}

// Factory constructs a ServerAdapter from Config.
type Factory func(Config) (ServerAdapter, error)

var (
	registryMu sync.Mutex
	registry   = map[string]Factory{}
)

// Register adds a named ServerAdapter factory to the registry. Intended to
// be called from provider init() functions.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New constructs the named adapter.
func New(name string, cfg Config) (ServerAdapter, error) {
	registryMu.Lock()
	f, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("server: unknown adapter %q", name)
	}
	return f(cfg)
}

// List returns the names of all registered adapters, sorted.
func List() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("stdlib", func(cfg Config) (ServerAdapter, error) {
		return NewStdlibAdapter(cfg), nil
	})
}

// StdlibAdapter is a ServerAdapter built entirely on net/http.
type StdlibAdapter struct {
	router *mux.Router
	hooks  Hooks

	mu  sync.Mutex
	srv *http.Server
}

// NewStdlibAdapter constructs a StdlibAdapter.
func NewStdlibAdapter(cfg Config) *StdlibAdapter {
	return &StdlibAdapter{
		router: mux.NewRouter(),
		hooks:  ComposeHooks(cfg.Hooks),
	}
}

func (a *StdlibAdapter) RegisterEngine(path string, e Engine) error {
	if e == nil {
		return fmt.Errorf("server: engine is required")
	}
	a.router.Handle(path, a.wrap(http.HandlerFunc(handleSearch(e)))).Methods(http.MethodPost)
	a.router.Handle(path+"/stream", a.wrap(http.HandlerFunc(handleSearchStream(e)))).Methods(http.MethodPost)
	return nil
}

func (a *StdlibAdapter) RegisterHandler(path string, handler http.Handler) error {
	if handler == nil {
		return fmt.Errorf("server: handler is required")
	}
	a.router.Handle(path, a.wrap(handler))
	return nil
}

// wrap runs the adapter's hooks around handler.
func (a *StdlibAdapter) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if a.hooks.BeforeRequest != nil {
			if err := a.hooks.BeforeRequest(ctx, r); err != nil {
				if a.hooks.OnError != nil {
					err = a.hooks.OnError(ctx, err)
				}
				http.Error(w, err.Error(), http.StatusForbidden)
				return
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler.ServeHTTP(rec, r)
		if a.hooks.AfterRequest != nil {
			a.hooks.AfterRequest(ctx, r, rec.status)
		}
	})
}

// Serve listens on addr and runs until ctx is canceled or the listener
// fails, returning ctx.Err() in the former case.
func (a *StdlibAdapter) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: a.router}
	a.mu.Lock()
	a.srv = srv
	a.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		srv.Shutdown(context.Background())
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops a running server. It is a no-op if Serve was
// never called.
func (a *StdlibAdapter) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	srv := a.srv
	a.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

var _ ServerAdapter = (*StdlibAdapter)(nil)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
