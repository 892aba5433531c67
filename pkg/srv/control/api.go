/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// go-icsource API
//
// # RESTful APIs to interact with go-icsource server
//
// Terms Of Service:
//
// Schemes: http
// Host: localhost:8000
// BasePath: /api
// Version: 1.0.0
// Contact:
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package control

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"jinr.ru/greenlab/go-icsource/pkg/acquisition"
	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/log"
	"jinr.ru/greenlab/go-icsource/pkg/srv"
	"jinr.ru/greenlab/go-icsource/pkg/srv/control/ifc"
	"jinr.ru/greenlab/go-icsource/pkg/transport"
)

//go:embed swagger.json
var swaggerJSON []byte

// Success response
// swagger:response okResp
type RespOk struct {
	// in:body
	Body struct {
		// HTTP status code 200 - OK
		Code int `json:"code"`
	}
}

// Error Bad Request
// swagger:response badReq
type ReqBadRequest struct {
	// in:body
	Body struct {
		// HTTP status code 400 -  Bad Request
		Code int `json:"code"`
	}
}

// Persist ...
type Persist struct {
	Dir        string
	FilePrefix string
}

type PersistResult struct {
	Filename string `json:"filename"`
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	ctrl ifc.ControlServer
	spec *loads.Document
}

var _ ifc.ApiServer = &ApiServer{}

func NewApiServer(ctx context.Context, cfg *config.Config, ctrl ifc.ControlServer) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s", cfg.APIAddress())

	spec, err := loads.Analyzed(swaggerJSON, "")
	if err != nil {
		return nil, fmt.Errorf("invalid embedded API spec: %w", err)
	}

	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		ctrl:    ctrl,
		spec:    spec,
	}
	s.configureRouter()
	return s, nil
}

// Handler is the router wrapped with panic recovery, request logging and
// the API documentation endpoints.
func (s *ApiServer) Handler() http.Handler {
	var h http.Handler = s.Router
	h = middleware.Redoc(middleware.RedocOpts{
		BasePath: "/",
		Path:     "docs",
		SpecURL:  "/swagger.json",
		Title:    s.spec.Spec().Info.Title,
	}, h)
	h = middleware.Spec("/", s.spec.Raw(), h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	return handlers.LoggingHandler(log.Writer(), h)
}

func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s", s.Config.APIAddress())
	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    s.Config.APIAddress(),
	}
	go func() {
		<-s.Context.Done()
		httpServer.Close()
	}()
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	// swagger:operation GET /status status
	// ---
	// summary: acquisition state, counters and framer statistics
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	subRouter.HandleFunc("/status", s.handleStatus()).Methods("GET")
	// swagger:operation GET /snapshot snapshot
	// ---
	// summary: latest n samples, all buffered samples without n
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "400":
	//     "$ref": "#/responses/badReq"
	subRouter.HandleFunc("/snapshot", s.handleSnapshot()).Methods("GET")
	subRouter.HandleFunc("/stats", s.handleStats()).Methods("GET")
	// swagger:operation GET /acquisition/{action:connect|disconnect|start|stop} acquisition
	// ---
	// summary: connect, disconnect, start or stop acquisition
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "400":
	//     "$ref": "#/responses/badReq"
	subRouter.HandleFunc("/acquisition/{action}", s.handleAcquisitionAction()).Methods("GET")
	subRouter.HandleFunc("/config", s.handleConfig()).Methods("GET")
	subRouter.HandleFunc("/config/protocol", s.handleSetProtocol()).Methods("POST")
	subRouter.HandleFunc("/config/transport", s.handleSetTransport()).Methods("POST")
	subRouter.HandleFunc("/config/acquisition", s.handleSetAcquisition()).Methods("POST")
	subRouter.HandleFunc("/targets", s.handleTargets()).Methods("GET")
	subRouter.HandleFunc("/sessions", s.handleSessions()).Methods("GET")
	// swagger:operation POST /persist persist
	// ---
	// summary: start recording samples to a new CSV file
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "400":
	//     "$ref": "#/responses/badReq"
	subRouter.HandleFunc("/persist", s.handlePersist()).Methods("POST")
	subRouter.HandleFunc("/flush", s.handleFlush()).Methods("GET")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding response: %s", err)
	}
}

// statusCode maps an operation error to an HTTP status. Errors not
// recognized as bad input are blamed on the transport.
func statusCode(err error) int {
	var modeErr acquisition.ErrModeSwitch
	var invalid config.ErrInvalidConfig
	var notFound srv.ErrNotFound
	var unknown srv.ErrUnknownOperation
	var noTarget transport.ErrNoTarget
	switch {
	case errors.As(err, &modeErr):
		return http.StatusConflict
	case errors.As(err, &invalid), errors.As(err, &noTarget), errors.As(err, &unknown):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func countParam(r *http.Request) (int, error) {
	value := r.URL.Query().Get("n")
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid sample count: %q", value)
	}
	return n, nil
}

func (s *ApiServer) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.ctrl.Status())
	}
}

func (s *ApiServer) handleSnapshot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := countParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, s.ctrl.Snapshot(n))
	}
}

func (s *ApiServer) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := countParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		stats := acquisition.ChannelStats(s.ctrl.Snapshot(n))
		if stats == nil {
			stats = []acquisition.ChannelStat{}
		}
		writeJSON(w, stats)
	}
}

func (s *ApiServer) handleAcquisitionAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling acquisition action request: action: %s", vars["action"])
		var err error
		switch vars["action"] {
		case "connect":
			err = s.ctrl.Connect()
		case "disconnect":
			err = s.ctrl.Disconnect()
		case "start":
			err = s.ctrl.Start()
		case "stop":
			err = s.ctrl.Stop()
		default:
			err = srv.ErrUnknownOperation{
				What: "Wrong acquisition action. Must be one of connect/disconnect/start/stop",
			}
		}
		if err != nil {
			http.Error(w, err.Error(), statusCode(err))
			return
		}
		writeJSON(w, s.ctrl.Status())
	}
}

func (s *ApiServer) handleConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.ctrl.Settings())
	}
}

// handleSetConfig decodes a section on top of the current settings so that
// omitted fields keep their values.
func (s *ApiServer) handleSetConfig(section func(*srv.Settings) interface{}, apply func(*srv.Settings) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings := s.ctrl.Settings()
		if err := json.NewDecoder(r.Body).Decode(section(settings)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := apply(settings); err != nil {
			code := statusCode(err)
			if code == http.StatusBadGateway {
				code = http.StatusBadRequest
			}
			http.Error(w, err.Error(), code)
			return
		}
		writeJSON(w, s.ctrl.Settings())
	}
}

func (s *ApiServer) handleSetProtocol() http.HandlerFunc {
	return s.handleSetConfig(
		func(c *srv.Settings) interface{} { return &c.Protocol },
		func(c *srv.Settings) error { return s.ctrl.SetProtocol(c.Protocol) },
	)
}

func (s *ApiServer) handleSetTransport() http.HandlerFunc {
	return s.handleSetConfig(
		func(c *srv.Settings) interface{} { return &c.Transport },
		func(c *srv.Settings) error { return s.ctrl.SetTransport(c.Transport) },
	)
}

func (s *ApiServer) handleSetAcquisition() http.HandlerFunc {
	return s.handleSetConfig(
		func(c *srv.Settings) interface{} { return &c.Acquisition },
		func(c *srv.Settings) error { return s.ctrl.SetAcquisition(c.Acquisition) },
	)
}

func (s *ApiServer) handleTargets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targets, err := s.ctrl.Targets()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, targets)
	}
}

func (s *ApiServer) handleSessions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := s.ctrl.Sessions()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, sessions)
	}
}

func (s *ApiServer) handlePersist() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		persist := &Persist{}
		if err := json.NewDecoder(r.Body).Decode(persist); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Handling persist request: dir: %s prefix: %s", persist.Dir, persist.FilePrefix)
		filename, err := s.ctrl.Persist(persist.Dir, persist.FilePrefix)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, PersistResult{Filename: filename})
	}
}

func (s *ApiServer) handleFlush() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.ctrl.Flush(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		ok := RespOk{}
		ok.Body.Code = http.StatusOK
		writeJSON(w, ok.Body)
	}
}
