// Package server exposes a small read-only HTTP surface for watching
// submitted jobs and deployed endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/platformlab/sagerun/config"
	"github.com/platformlab/sagerun/log"
	"github.com/platformlab/sagerun/remote"
)

const requestTimeout = time.Second * 30

// Serve starts serving web-server for accepting requests
func Serve(cfg *config.Config, client remote.Client) error {
	ln, err := net.Listen("tcp4", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("cannot listen for %q: %s", cfg.ListenAddr, err)
	}
	s := &http.Server{
		Handler:      newRouter(client),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	log.Infof("Started successfully. Listening on %q", cfg.ListenAddr)
	return s.Serve(ln)
}

func newRouter(client remote.Client) http.Handler {
	r := httprouter.New()
	r.GET("/", showHelp)
	r.GET("/jobs", listJobs(client))
	r.GET("/endpoints", listEndpoints(client))
	return r
}

func showHelp(rw http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	fmt.Fprintln(rw, "Available endpoints:")
	fmt.Fprintln(rw, "GET /jobs")
	fmt.Fprintln(rw, "GET /endpoints")
}

func listJobs(client remote.Client) httprouter.Handle {
	return func(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
		defer cancel()
		jobs, err := client.ListTrainingJobs(ctx)
		if err != nil {
			respondWithError(rw, err)
			return
		}
		respondWithJSON(rw, jobs)
	}
}

func listEndpoints(client remote.Client) httprouter.Handle {
	return func(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
		defer cancel()
		endpoints, err := client.ListEndpoints(ctx)
		if err != nil {
			respondWithError(rw, err)
			return
		}
		respondWithJSON(rw, endpoints)
	}
}

func respondWithError(rw http.ResponseWriter, err error) {
	rw.WriteHeader(http.StatusBadGateway)
	fmt.Fprintf(rw, "error occured: %s", err)
}

func respondWithJSON(rw http.ResponseWriter, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.Write(payload)
}
