// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package view

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds how long Serve waits for in-flight requests
// once ctx is done.
const shutdownTimeout = 5 * time.Second

// Serve serves app on addr until ctx is done. Once the listener is
// ready, Serve logs its URL and, if open is non-nil, calls open with
// it. A failure to open is logged and does not stop the server.
func Serve(ctx context.Context, addr string, app *App, open func(url string) error) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	app.RegisterOnMux(mux)
	srv := &http.Server{Handler: mux}

	url := "http://" + ln.Addr().String() + "/"
	log.Printf("Listening on %s", url)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if open != nil {
		g.Go(func() error {
			if err := open(url); err != nil {
				log.Printf("opening browser: %v", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// OpenBrowser opens url in the user's default browser.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
