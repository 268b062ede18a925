/*
 * Patch Panel - A software patch panel for OpenFlow switches
 *
 * Copyright (C) 2015-2019 Samjung Data Service, Inc. All rights reserved.
 *  Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/stereocat/patch-panel/network"
	"github.com/stereocat/patch-panel/patch"
)

var (
	logger = logging.MustGetLogger("api")
)

type Server struct {
	Port uint16
	TLS  struct {
		Cert string // Path for a TLS certification file.
		Key  string // Path for a TLS private key file.
	}
	Controller Controller
	// Metrics is served at MetricsPath if it is not nil.
	Metrics     http.Handler
	MetricsPath string
}

type Controller interface {
	CreatePatch(patch.Spec) error
	DeletePatch(patch.Spec) error
	ListPatches() []patch.Spec
	CreateWire(dpid uint64, a, b uint32) error
	DeleteWire(dpid uint64, a, b uint32) error
	PhysicalLinks() []network.Link
	LogicalWires() []network.Link
	Switches() []network.Switch
	Switch(dpid uint64) (network.Switch, bool)
	Snapshot() network.Snapshot
}

func (r *Server) validate() error {
	if r.Controller == nil {
		return errors.New("nil controller")
	}
	if r.Metrics != nil && r.MetricsPath == "" {
		return errors.New("empty metrics path")
	}

	return nil
}

// Handler returns the HTTP handler that serves the REST API and the metrics.
func (r *Server) Handler() (http.Handler, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	api := rest.NewApi()
	// Middleware to set the CORS header.
	api.Use(rest.MiddlewareSimple(func(handler rest.HandlerFunc) rest.HandlerFunc {
		return func(writer rest.ResponseWriter, request *rest.Request) {
			writer.Header().Set("Access-Control-Allow-Origin", "*")
			handler(writer, request)
		}
	}))
	// Middleware to recover from panics in the handlers.
	api.Use(&rest.RecoverMiddleware{EnableResponseStackTrace: false})
	router, err := rest.MakeRouter(r.routes()...)
	if err != nil {
		return nil, err
	}
	api.SetApp(router)

	if r.Metrics == nil {
		return api.MakeHandler(), nil
	}
	mux := http.NewServeMux()
	mux.Handle(r.MetricsPath, r.Metrics)
	mux.Handle("/", api.MakeHandler())

	return mux, nil
}

// Serve listens on all interfaces until ctx is done.
func (r *Server) Serve(ctx context.Context) error {
	handler, err := r.Handler()
	if err != nil {
		return err
	}

	// Listen on all interfaces.
	server := &http.Server{
		Addr:    fmt.Sprintf(":%v", r.Port),
		Handler: handler,
	}
	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(c); err != nil {
			logger.Errorf("failed to shutdown the REST server: %v", err)
		}
	}()
	logger.Infof("REST server is listening on %v", server.Addr)

	if r.TLS.Cert != "" && r.TLS.Key != "" {
		err = server.ListenAndServeTLS(r.TLS.Cert, r.TLS.Key)
	} else {
		err = server.ListenAndServe()
	}
	if err == http.ErrServerClosed {
		return nil
	}

	return err
}
