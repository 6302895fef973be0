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

// go-dummy API
//
// # RESTful APIs to interact with the DUMMY register bank
//
// Terms Of Service:
//
// Schemes: http
// Host: localhost:8000
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
	"net/http"
	"strconv"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/rpsim/go-dummy/pkg/config"
	"github.com/rpsim/go-dummy/pkg/device"
	"github.com/rpsim/go-dummy/pkg/log"
	"github.com/rpsim/go-dummy/pkg/mem"
	"github.com/rpsim/go-dummy/pkg/params"
	"github.com/rpsim/go-dummy/pkg/srv"
	"github.com/rpsim/go-dummy/pkg/srv/control/ifc"
	"github.com/rpsim/go-dummy/pkg/state"
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

// RegHex ...
type RegHex struct {
	Name  string
	Addr  string // hexadecimal
	Value string // hexadecimal
}

// CountResp is the number of stored or loaded parameters
type CountResp struct {
	Count int `json:"count"`
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
	log.Info("Initializing API server with address: %s", cfg.ApiListenAddr())

	spec, err := loads.Analyzed(swaggerJSON, "")
	if err != nil {
		return nil, errors.Wrap(err, "Error while loading API spec")
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

// Handler serves the API together with its spec at /swagger.json and docs at /docs
func (s *ApiServer) Handler() http.Handler {
	var h http.Handler = s.Router
	h = middleware.Redoc(middleware.RedocOpts{Title: "go-dummy API"}, h)
	h = middleware.Spec("/", s.spec.Raw(), h)
	h = handlers.LoggingHandler(log.Writer(), h)
	return handlers.RecoveryHandler()(h)
}

// Start
func (s *ApiServer) Run() error {
	log.Info("Starting API server: %s", s.ApiListenAddr())
	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    s.ApiListenAddr(),
	}
	go func() {
		<-s.Context.Done()
		httpServer.Close()
	}()
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return s.Context.Err()
	}
	return err
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	// swagger:operation GET /reg/r read all registers
	// ---
	// summary: read all registers
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	subRouter.HandleFunc("/reg/r", s.handleRegReadAll()).Methods("GET")
	// swagger:operation GET /reg/r/{name} read register
	// ---
	// summary: read register by name
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "404":
	//     "$ref": "#/responses/badReq"
	subRouter.HandleFunc("/reg/r/{name}", s.handleRegRead()).Methods("GET")
	// swagger:operation POST /reg/w write register
	// ---
	// summary: write register
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "400":
	//     "$ref": "#/responses/badReq"
	subRouter.HandleFunc("/reg/w", s.handleRegWrite()).Methods("POST")
	subRouter.HandleFunc("/reg/snapshot/{name}", s.handleSnapshotSave()).Methods("POST")
	subRouter.HandleFunc("/reg/snapshot/{name}", s.handleSnapshotGet()).Methods("GET")
	subRouter.HandleFunc("/params", s.handleParams()).Methods("GET")
	subRouter.HandleFunc("/params", s.handleParamsSet()).Methods("POST")
	subRouter.HandleFunc("/params/readback", s.handleReadback()).Methods("GET")
	subRouter.HandleFunc("/params/{action:save|load}", s.handleParamsStore()).Methods("POST")
	// swagger:operation POST /{action} freeze, restore or reset
	// ---
	// summary: freeze or restore sampling, reset registers to defaults
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "409":
	//     "$ref": "#/responses/badReq"
	subRouter.HandleFunc("/{action:freeze|restore|reset}", s.handleAction()).Methods("POST")
}

// httpStatus maps errors of the control server to response codes
func httpStatus(err error) int {
	var unknownReg device.ErrUnknownReg
	var unknownParam params.ErrUnknownParam
	var notFound state.ErrNotFound
	var readOnlyReg device.ErrReadOnlyReg
	var readOnlyParam params.ErrReadOnlyParam
	switch {
	case errors.As(err, &unknownReg), errors.As(err, &unknownParam), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &readOnlyReg), errors.As(err, &readOnlyParam):
		return http.StatusBadRequest
	case mem.IsNotInitialized(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func regHex(reg *device.Reg) *RegHex {
	addr, value := reg.Hex()
	return &RegHex{Name: reg.Alias.String(), Addr: addr, Value: value}
}

func (s *ApiServer) handleRegRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling reg read request: %s", vars["name"])

		reg, err := s.ctrl.RegRead(vars["name"])
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(regHex(reg))
	}
}

func (s *ApiServer) handleRegReadAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling reg read all request")

		regs, err := s.ctrl.RegReadAll()
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		regsHex := []*RegHex{}
		for _, reg := range regs {
			regsHex = append(regsHex, regHex(reg))
		}
		json.NewEncoder(w).Encode(regsHex)
	}
}

func (s *ApiServer) handleRegWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg := &RegHex{}
		err := json.NewDecoder(r.Body).Decode(reg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		log.Debug("Handling reg write request: %s = %s", reg.Name, reg.Value)

		value, err := strconv.ParseUint(reg.Value, 0, 32)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.RegWrite(reg.Name, uint32(value)); err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
	}
}

func (s *ApiServer) handleSnapshotSave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		log.Debug("Handling snapshot request: %s", name)
		if err := s.ctrl.SaveSnapshot(name); err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
	}
}

func (s *ApiServer) handleSnapshotGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := s.ctrl.Snapshot(mux.Vars(r)["name"])
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(snapshot)
	}
}

func (s *ApiServer) handleParams() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(s.ctrl.Params().Dummy())
	}
}

func (s *ApiServer) handleParamsSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := map[string]float32{}
		err := json.NewDecoder(r.Body).Decode(&values)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Handling params set request: %d values", len(values))

		p, err := s.ctrl.SetParams(values)
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(p.Dummy())
	}
}

func (s *ApiServer) handleReadback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.ctrl.Readback()
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(p.Dummy())
	}
}

func (s *ApiServer) handleParamsStore() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := mux.Vars(r)["action"]
		log.Debug("Handling params %s request", action)

		var n int
		var err error
		switch action {
		case "save":
			n, err = s.ctrl.SaveParams()
		case "load":
			n, err = s.ctrl.LoadParams()
		}
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(&CountResp{Count: n})
	}
}

func (s *ApiServer) handleAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling action request: %s", vars["action"])
		var err error
		switch vars["action"] {
		case "freeze":
			err = s.ctrl.Freeze()
		case "restore":
			err = s.ctrl.Restore()
		case "reset":
			err = s.ctrl.Reset()
		default:
			err = srv.ErrUnknownOperation{What: "Wrong action. Must be one of freeze/restore/reset"}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
	}
}
