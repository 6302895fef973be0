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

package control

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/pkg/errors"

	"github.com/rpsim/go-dummy/pkg/config"
	"github.com/rpsim/go-dummy/pkg/device"
	"github.com/rpsim/go-dummy/pkg/device/dummy"
	deviceifc "github.com/rpsim/go-dummy/pkg/device/ifc"
	"github.com/rpsim/go-dummy/pkg/layers"
	"github.com/rpsim/go-dummy/pkg/log"
	"github.com/rpsim/go-dummy/pkg/params"
	"github.com/rpsim/go-dummy/pkg/srv/control/ifc"
	"github.com/rpsim/go-dummy/pkg/state"
)

type ControlServer struct {
	context.Context
	*config.Config
	// mu serializes every call into the device and the parameter table
	mu     sync.Mutex
	device deviceifc.Device
	params params.Params
	state  *state.State
	api    ifc.ApiServer
	reg    ifc.RegServer
}

var _ ifc.ControlServer = &ControlServer{}

// NewControlServer creates the server owning the DUMMY device described by the config
func NewControlServer(ctx context.Context, cfg *config.Config) (*ControlServer, error) {
	st, err := state.NewState(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	s, err := NewControlServerWithDevice(ctx, cfg, dummy.NewDevice(cfg.Mem), st)
	if err != nil {
		st.Close()
		return nil, err
	}
	return s, nil
}

// NewControlServerWithDevice ...
func NewControlServerWithDevice(ctx context.Context, cfg *config.Config, dev deviceifc.Device, st *state.State) (*ControlServer, error) {
	log.Debug("Initializing control server: api %s reg %s", cfg.ApiListenAddr(), cfg.RegListenAddr())
	s := &ControlServer{
		Context: ctx,
		Config:  cfg,
		device:  dev,
		params:  params.NewDefaultParams(),
		state:   st,
	}

	apiServer, err := NewApiServer(ctx, cfg, s)
	if err != nil {
		return nil, err
	}
	s.api = apiServer

	regServer, err := NewRegServer(ctx, cfg, s)
	if err != nil {
		return nil, err
	}
	s.reg = regServer
	return s, nil
}

// Handler returns the HTTP handler of the API server
func (s *ControlServer) Handler() http.Handler {
	return s.api.Handler()
}

// Init maps the device and, if configured, applies the stored parameters
func (s *ControlServer) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.device.Init(); err != nil {
		return err
	}
	if !s.ApplyOnStart {
		return nil
	}
	if _, err := s.state.Load(s.params); err != nil {
		return err
	}
	return s.device.ApplySettings(s.params)
}

// Close unmaps the device and closes the state database
func (s *ControlServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.device.Exit()
	if stateErr := s.state.Close(); err == nil {
		err = stateErr
	}
	return err
}

// Run initializes the device and serves API and register requests until
// the context is done or one of the servers fails
func (s *ControlServer) Run() error {
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Close()

	errChan := make(chan error, 2)
	go func() {
		errChan <- errors.Wrap(s.api.Run(), "API server")
	}()
	go func() {
		errChan <- errors.Wrap(s.reg.Run(), "register server")
	}()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err := <-errChan:
		return err
	}
}

// Params returns a copy of the parameter table
func (s *ControlServer) Params() params.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyParams()
}

func (s *ControlServer) copyParams() params.Params {
	p := make(params.Params, len(s.params))
	copy(p, s.params)
	return p
}

// SetParams validates all values first, so a bad name leaves the table untouched
func (s *ControlServer) SetParams(values map[string]float32) (params.Params, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.copyParams()
	for name, value := range values {
		if err := p.Set(name, value); err != nil {
			return nil, err
		}
	}
	if err := s.device.ApplySettings(p); err != nil {
		return nil, err
	}
	s.params = p
	log.Info("Applied %d parameters", len(values))
	return s.copyParams(), nil
}

// Readback reads the registers into the parameter table while sampling is frozen
func (s *ControlServer) Readback() (params.Params, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.device.ReadConsistent(s.params); err != nil {
		return nil, err
	}
	return s.copyParams(), nil
}

// SaveParams stores the parameter table
func (s *ControlServer) SaveParams() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Save(s.params)
}

// LoadParams loads the stored parameters and applies them
func (s *ControlServer) LoadParams() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.copyParams()
	n, err := s.state.Load(p)
	if err != nil {
		return 0, err
	}
	if err := s.device.ApplySettings(p); err != nil {
		return 0, err
	}
	s.params = p
	return n, nil
}

func (s *ControlServer) Freeze() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device.Freeze()
}

func (s *ControlServer) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device.Restore()
}

// Reset writes register defaults and resets the parameter table to match
func (s *ControlServer) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.device.Reset(); err != nil {
		return err
	}
	s.params = params.NewDefaultParams()
	return nil
}

func (s *ControlServer) RegRead(name string) (*device.Reg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device.RegRead(name)
}

func (s *ControlServer) RegReadAll() ([]*device.Reg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device.RegReadAll()
}

func (s *ControlServer) RegWrite(name string, value uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device.RegWrite(name, value)
}

func (s *ControlServer) SaveSnapshot(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	regs, err := s.device.RegReadAll()
	if err != nil {
		return err
	}
	return s.state.SaveSnapshot(name, regs)
}

func (s *ControlServer) Snapshot(name string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.GetSnapshot(name)
}

// RegOps executes all operations or stops at the first failing one
func (s *ControlServer) RegOps(ops []*layers.RegOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		if err := s.regOp(op.Read, op.Reg); err != nil {
			return err
		}
	}
	return nil
}

// MemOp reads or writes consecutive registers
func (s *ControlServer) MemOp(op *layers.MemOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !op.Read && uint32(len(op.Data)) != op.Size {
		return layers.ErrPayload{What: "block write without data"}
	}
	data := make([]uint32, op.Size)
	for i := uint32(0); i < op.Size; i++ {
		addr := op.Addr + i*device.RegSize
		if addr >= uint32(device.RegsLen) {
			return device.ErrUnknownReg{Name: fmt.Sprintf("0x%06x", addr)}
		}
		reg := &layers.Reg{Addr: uint16(addr)}
		if !op.Read {
			reg.Value = op.Data[i]
		}
		if err := s.regOp(op.Read, reg); err != nil {
			return err
		}
		data[i] = reg.Value
	}
	op.Data = data
	return nil
}

func (s *ControlServer) regOp(read bool, reg *layers.Reg) error {
	alias, err := device.RegByOffset(reg.Addr)
	if err != nil {
		return err
	}
	if !read {
		return s.device.RegWrite(alias.String(), reg.Value)
	}
	r, err := s.device.RegRead(alias.String())
	if err != nil {
		return err
	}
	reg.Value = r.Value
	return nil
}
