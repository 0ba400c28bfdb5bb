package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jazzpi/sirc"
)

// statusSource is the part of *sirc.Client the status server reads.
type statusSource interface {
	State() sirc.ConnState
	QueueLen() int
	Channels() []string
	Channel(name string) (sirc.Channel, bool)
}

type channelJSON struct {
	Name  string   `json:"name"`
	Users []string `json:"users"`
	Ops   []string `json:"ops"`
}

// newStatusRouter serves Prometheus metrics and read-only channel state:
//
//	GET /metrics
//	GET /status
//	GET /channels
//	GET /channels/{name}   (the leading '#' may be omitted)
func newStatusRouter(src statusSource) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(sirc.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.HandleFunc("/status", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"state":    src.State().String(),
			"queued":   src.QueueLen(),
			"channels": src.Channels(),
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/channels", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, src.Channels())
	}).Methods(http.MethodGet)

	r.HandleFunc("/channels/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := mux.Vars(req)["name"]
		if !strings.HasPrefix(name, "#") {
			name = "#" + name
		}
		ch, ok := src.Channel(name)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown channel " + name})
			return
		}
		writeJSON(w, http.StatusOK, channelJSON{
			Name:  ch.Name,
			Users: ch.Users(),
			Ops:   ch.Ops(),
		})
	}).Methods(http.MethodGet)

	return r
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
