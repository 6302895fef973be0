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
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpsim/go-dummy/pkg/config"
	"github.com/rpsim/go-dummy/pkg/device"
	"github.com/rpsim/go-dummy/pkg/device/dummy"
	"github.com/rpsim/go-dummy/pkg/layers"
	"github.com/rpsim/go-dummy/pkg/mem"
	"github.com/rpsim/go-dummy/pkg/params"
	"github.com/rpsim/go-dummy/pkg/state"
)

func newTestServer(t *testing.T) *ControlServer {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "state.db")
	cfg.Api.Address = "127.0.0.1"
	cfg.Reg.Address = "127.0.0.1"
	cfg.Reg.Port = 0
	st, err := state.NewState(cfg.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewControlServerWithDevice(context.Background(), cfg, dummy.New(mem.NewBuffer()), st)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func regValue(t *testing.T, s *ControlServer, name string) uint32 {
	t.Helper()
	reg, err := s.RegRead(name)
	if err != nil {
		t.Fatal(err)
	}
	return reg.Value
}

func TestSetParams(t *testing.T) {
	s := newTestServer(t)
	p, err := s.SetParams(map[string]float32{"dummy_sg_width": 100.9, "dummy_read_ctrl": 2})
	if err != nil {
		t.Fatal(err)
	}
	if p.Value(params.SgWidth) != 100.9 {
		t.Errorf("sg_width parameter %v", p.Value(params.SgWidth))
	}
	if v := regValue(t, s, "sg_width"); v != 100 {
		t.Errorf("sg_width register %d, want 100", v)
	}

	var unknown params.ErrUnknownParam
	_, err = s.SetParams(map[string]float32{"dummy_sg_width": 5, "dummy_nope": 1})
	if !errors.As(err, &unknown) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
	if v := s.Params().Value(params.SgWidth); v != 100.9 {
		t.Errorf("failed request changed the table: %v", v)
	}
	if v := regValue(t, s, "sg_width"); v != 100 {
		t.Errorf("failed request changed the register: %d", v)
	}

	var readOnly params.ErrReadOnlyParam
	if _, err := s.SetParams(map[string]float32{"dummy_in1": 1}); !errors.As(err, &readOnly) {
		t.Errorf("expected ErrReadOnlyParam, got %v", err)
	}
}

func TestReadbackKeepsSampling(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.SetParams(map[string]float32{"dummy_read_ctrl": 2}); err != nil {
		t.Fatal(err)
	}
	p, err := s.Readback()
	if err != nil {
		t.Fatal(err)
	}
	if p.Value(params.ReadCtrl) != 2 {
		t.Errorf("read_ctrl parameter %v, want 2", p.Value(params.ReadCtrl))
	}
	if v := regValue(t, s, "read_ctrl"); v != 2 {
		t.Errorf("read_ctrl register 0x%x after readback", v)
	}
}

func TestSaveLoadParams(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.SetParams(map[string]float32{"dummy_drift_time": 7}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveParams(); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if v := s.Params().Value(params.DriftTime); v != 13 {
		t.Errorf("drift_time after reset %v", v)
	}
	n, err := s.LoadParams()
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Error("nothing loaded")
	}
	if v := regValue(t, s, "drift_time"); v != 7 {
		t.Errorf("drift_time register %d, want 7", v)
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestServer(t)
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSnapshot("defaults"); err != nil {
		t.Fatal(err)
	}
	snapshot, err := s.Snapshot("defaults")
	if err != nil {
		t.Fatal(err)
	}
	if snapshot["sg_amp"] != "0x00001060" || len(snapshot) != int(device.RegAliasLimit) {
		t.Errorf("snapshot %v", snapshot)
	}
}

func TestRegOps(t *testing.T) {
	s := newTestServer(t)
	sgAmp := device.RegSgAmp.Def().Offset
	ops := []*layers.RegOp{
		{Read: false, Reg: &layers.Reg{Addr: sgAmp, Value: 0x123}},
		{Read: true, Reg: &layers.Reg{Addr: sgAmp}},
	}
	if err := s.RegOps(ops); err != nil {
		t.Fatal(err)
	}
	if ops[1].Value != 0x123 {
		t.Errorf("read 0x%x", ops[1].Value)
	}

	var readOnly device.ErrReadOnlyReg
	in1 := device.RegIn1.Def().Offset
	if err := s.RegOps([]*layers.RegOp{{Reg: &layers.Reg{Addr: in1, Value: 1}}}); !errors.As(err, &readOnly) {
		t.Errorf("expected ErrReadOnlyReg, got %v", err)
	}
	var unknown device.ErrUnknownReg
	if err := s.RegOps([]*layers.RegOp{{Read: true, Reg: &layers.Reg{Addr: 0x7f0}}}); !errors.As(err, &unknown) {
		t.Errorf("expected ErrUnknownReg, got %v", err)
	}
}

func TestMemOp(t *testing.T) {
	s := newTestServer(t)
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	op := &layers.MemOp{Read: true, Addr: uint32(device.RegSgAmp.Def().Offset), Size: 2}
	if err := s.MemOp(op); err != nil {
		t.Fatal(err)
	}
	if len(op.Data) != 2 || op.Data[0] != 4192 {
		t.Errorf("block read %v", op.Data)
	}

	write := &layers.MemOp{Addr: uint32(device.RegDriftTime.Def().Offset), Size: 1}
	var payload layers.ErrPayload
	if err := s.MemOp(write); !errors.As(err, &payload) {
		t.Errorf("expected ErrPayload, got %v", err)
	}
	write.Data = []uint32{3}
	if err := s.MemOp(write); err != nil {
		t.Fatal(err)
	}
	if v := regValue(t, s, "drift_time"); v != 3 {
		t.Errorf("drift_time %d", v)
	}

	// 0x10000 must not wrap around to offset 0
	before := regValue(t, s, device.RegOscASw.String())
	var unknown device.ErrUnknownReg
	far := &layers.MemOp{Addr: 0x10000, Size: 1, Data: []uint32{before + 1}}
	if err := s.MemOp(far); !errors.As(err, &unknown) {
		t.Errorf("expected ErrUnknownReg, got %v", err)
	}
	last := &layers.MemOp{Read: true, Addr: uint32(device.RegReadCtrl.Def().Offset), Size: 2}
	if err := s.MemOp(last); !errors.As(err, &unknown) {
		t.Errorf("block past the last register: expected ErrUnknownReg, got %v", err)
	}
	if v := regValue(t, s, device.RegOscASw.String()); v != before {
		t.Errorf("%s changed to 0x%x", device.RegOscASw, v)
	}
}

func TestNotMapped(t *testing.T) {
	s := newTestServer(t)
	if err := s.device.Exit(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Readback(); !mem.IsNotInitialized(err) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if err := s.Freeze(); !mem.IsNotInitialized(err) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "state.db")
	cfg.Mem.Simulated = true
	cfg.Api.Address = "127.0.0.1"
	cfg.Api.Port = freePort(t)
	cfg.Reg.Address = "127.0.0.1"
	cfg.Reg.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewControlServer(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Run() }()
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
