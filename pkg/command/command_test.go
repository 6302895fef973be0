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

package command

import (
	"context"
	"net"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rpsim/go-dummy/pkg/config"
	"github.com/rpsim/go-dummy/pkg/device"
	"github.com/rpsim/go-dummy/pkg/device/dummy"
	"github.com/rpsim/go-dummy/pkg/mem"
	"github.com/rpsim/go-dummy/pkg/params"
	"github.com/rpsim/go-dummy/pkg/srv/control"
	"github.com/rpsim/go-dummy/pkg/state"
)

func newControlServer(t *testing.T, ctx context.Context, cfg *config.Config) *control.ControlServer {
	t.Helper()
	st, err := state.NewState(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := control.NewControlServerWithDevice(ctx, cfg, dummy.New(mem.NewBuffer()), st)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newApiClient(t *testing.T) *ApiClient {
	t.Helper()
	cfg := config.NewDefaultConfig()
	s := newControlServer(t, context.Background(), cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	cfg.Api.Host = u.Hostname()
	cfg.Api.Port = port
	return NewApiClient(cfg)
}

func TestApiClientRegisters(t *testing.T) {
	c := newApiClient(t)
	if err := c.Reset(); err != nil {
		t.Fatal(err)
	}
	reg, err := c.RegRead("noise_amp")
	if err != nil {
		t.Fatal(err)
	}
	if reg.Value != "0x00000400" || reg.Addr != "0x078" {
		t.Errorf("noise_amp %+v", reg)
	}
	if err := c.RegWrite("noise_amp", "0x10"); err != nil {
		t.Fatal(err)
	}
	regs, err := c.RegReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(regs) != int(device.RegAliasLimit) || regs[device.RegNoiseAmp].Value != "0x00000010" {
		t.Errorf("registers %d", len(regs))
	}

	err = c.RegWrite("oscB", "0x1")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("read only write: %v", err)
	}
	if _, err := c.RegRead("nope"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("unknown register: %v", err)
	}

	if err := c.SaveSnapshot("s1"); err != nil {
		t.Fatal(err)
	}
	snapshot, err := c.Snapshot("s1")
	if err != nil {
		t.Fatal(err)
	}
	if snapshot["noise_amp"] != "0x00000010" {
		t.Errorf("snapshot %v", snapshot)
	}
}

func TestApiClientParams(t *testing.T) {
	c := newApiClient(t)
	p, err := c.SetParams(map[string]float32{"dummy_hpf_on": 1, "dummy_hpf_val": 9})
	if err != nil {
		t.Fatal(err)
	}
	if p[params.HpfVal-params.IndexBase].Value != 9 {
		t.Errorf("hpf_val %v", p[params.HpfVal-params.IndexBase])
	}
	if err := c.Freeze(); err != nil {
		t.Fatal(err)
	}
	if err := c.Restore(); err != nil {
		t.Fatal(err)
	}
	back, err := c.Readback()
	if err != nil {
		t.Fatal(err)
	}
	if back[params.HpfOn-params.IndexBase].Value != 1 {
		t.Errorf("hpf_on read back %v", back[params.HpfOn-params.IndexBase])
	}
	saved, err := c.SaveParams()
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := c.LoadParams()
	if err != nil {
		t.Fatal(err)
	}
	if saved == 0 || saved != loaded {
		t.Errorf("saved %d, loaded %d", saved, loaded)
	}
	all, err := c.Params()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != params.ParamsNum-params.IndexBase {
		t.Errorf("%d parameters", len(all))
	}
}

func TestRegClient(t *testing.T) {
	l, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	port := l.LocalAddr().(*net.UDPAddr).Port
	l.Close()

	cfg := config.NewDefaultConfig()
	cfg.Reg.Address = "127.0.0.1"
	cfg.Reg.Host = "127.0.0.1"
	cfg.Reg.Port = port
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newControlServer(t, ctx, cfg)
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	regServer, err := control.NewRegServer(ctx, cfg, s)
	if err != nil {
		t.Fatal(err)
	}
	go regServer.Run()
	select {
	case <-regServer.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("register server is not listening")
	}

	c, err := NewRegClient(cfg)
	if err != nil {
		t.Fatal(err)
	}
	c.Timeout = 200 * time.Millisecond
	c.Retries = 10

	if err := c.RegWrite(device.RegSgBase.Def().Offset, 0xfffffff0); err != nil {
		t.Fatal(err)
	}
	value, err := c.RegRead(device.RegSgBase.Def().Offset)
	if err != nil {
		t.Fatal(err)
	}
	if value != 0xfffffff0 {
		t.Errorf("sg_base 0x%x", value)
	}
	block, err := c.MemRead(uint32(device.RegSgAmp.Def().Offset), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(block) != 3 || block[0] != 4192 || block[1] != 8191 || block[2] != 0xfffffff0 {
		t.Errorf("block %v", block)
	}

	// the server drops requests it cannot execute
	c.Retries = 1
	if err := c.RegWrite(device.RegOscA.Def().Offset, 1); err == nil {
		t.Error("write to a read only register must time out")
	}
}
