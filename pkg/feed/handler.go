// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/echa/log"
	"github.com/gorilla/schema"

	"blockwatch.cc/flightsurety/pkg/surety"
)

const BANNER = "An API for use with your Dapp!"

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

type Result struct {
	Result interface{} `json:"result"`
}

type Message struct {
	Message string `json:"message"`
}

// Server exposes the flight feed over HTTP.
type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

// Register adds the feed routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api", s.apiHandler)
	mux.HandleFunc("/flights", s.flightsHandler)
	mux.HandleFunc("/flights/", s.flightHandler)
}

func (s *Server) apiHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "invalid method", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, Message{Message: BANNER})
}

func (s *Server) flightsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "invalid method", http.StatusMethodNotAllowed)
		return
	}

	var filter Filter
	if err := decoder.Decode(&filter, r.URL.Query()); err != nil {
		log.Error(err)
		http.Error(w, fmt.Sprintf("invalid query: %v", err), http.StatusBadRequest)
		return
	}

	list, err := s.repo.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, surety.ErrInvalidStatus) {
			http.Error(w, fmt.Sprintf("invalid status %q", filter.Status), http.StatusBadRequest)
			return
		}
		log.Error(err)
		http.Error(w, fmt.Sprintf("list flights: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, Result{Result: list})
}

// flightHandler serves a single feed entry at /flights/<id>.
func (s *Server) flightHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "invalid method", http.StatusMethodNotAllowed)
		return
	}
	id, err := surety.ParseFlightID(strings.TrimPrefix(r.URL.Path, "/flights/"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid flight id: %v", err), http.StatusBadRequest)
		return
	}
	flight, err := s.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, fmt.Sprintf("flight %s not found", id), http.StatusNotFound)
			return
		}
		log.Error(err)
		http.Error(w, fmt.Sprintf("get flight: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, Result{Result: flight})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	buf, err := json.Marshal(v)
	if err != nil {
		log.Error(err)
		http.Error(w, fmt.Sprintf("marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Date", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write(buf)
}
