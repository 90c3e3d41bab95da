// Package callback receives the LinkedIn OAuth redirect on a loopback address.
package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultPath is the redirect path registered with the backend
const DefaultPath = "/auth/callback/linkedin"

// Params are the query parameters of the OAuth redirect
type Params struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

func fromQuery(q url.Values) Params {
	return Params{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}
}

// ParseURL extracts the redirect parameters from a pasted URL.
func ParseURL(raw string) (Params, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Params{}, fmt.Errorf("invalid callback URL: %w", err)
	}
	p := fromQuery(u.Query())
	if p.Code == "" && p.Error == "" {
		return Params{}, errors.New("callback URL has neither a code nor an error parameter")
	}
	return p, nil
}

const page = `<!DOCTYPE html>
<html><head><title>contentflow</title></head>
<body><h3>%s</h3><p>You can close this window and return to the terminal.</p></body></html>`

// Listener serves a single OAuth redirect.
type Listener struct {
	server *http.Server
	ln     net.Listener
	path   string
	result chan Params
	once   sync.Once
}

// Listen starts serving on addr. Only requests to path are captured; the
// first one wins.
func Listen(addr, path string) (*Listener, error) {
	if path == "" {
		path = DefaultPath
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	l := &Listener{
		ln:     ln,
		path:   path,
		result: make(chan Params, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, l.handle)
	l.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		_ = l.server.Serve(ln)
	}()
	return l, nil
}

// URL is the redirect URL served by the listener
func (l *Listener) URL() string {
	return "http://" + l.ln.Addr().String() + l.path
}

func (l *Listener) handle(w http.ResponseWriter, r *http.Request) {
	p := fromQuery(r.URL.Query())

	msg := "LinkedIn authorization received."
	if p.Error != "" {
		msg = "LinkedIn authorization failed."
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, page, msg)

	l.once.Do(func() { l.result <- p })
}

// Wait blocks until the redirect arrives or ctx is done.
func (l *Listener) Wait(ctx context.Context) (Params, error) {
	select {
	case p := <-l.result:
		return p, nil
	case <-ctx.Done():
		return Params{}, ctx.Err()
	}
}

// Close shuts the server down, waiting briefly for the response in flight.
func (l *Listener) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return l.server.Shutdown(ctx)
}
