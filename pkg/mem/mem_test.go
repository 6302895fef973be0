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

package mem

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/rpsim/go-dummy/pkg/config"
	"github.com/rpsim/go-dummy/pkg/device"
	"github.com/rpsim/go-dummy/pkg/log"
)

const regOffset = 0x10

// fakeMemDevice creates a two page file standing in for /dev/mem. The register
// window starts regOffset bytes into the second page, so the base is not page
// aligned.
func fakeMemDevice(t *testing.T) *config.MemConfig {
	t.Helper()
	ps := unix.Getpagesize()
	path := filepath.Join(t.TempDir(), "mem")
	if err := os.WriteFile(path, make([]byte, 2*ps), 0600); err != nil {
		t.Fatal(err)
	}
	return &config.MemConfig{
		Device:   path,
		BaseAddr: uint64(ps) + regOffset,
		Size:     device.BaseSize,
	}
}

// openFds counts descriptors of this process that point to path
func openFds(t *testing.T, path string) int {
	t.Helper()
	want, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("can not list descriptors: %s", err)
	}
	count := 0
	for _, e := range entries {
		target, err := os.Readlink(filepath.Join("/proc/self/fd", e.Name()))
		if err != nil {
			continue
		}
		if target == want {
			count++
		}
	}
	return count
}

func TestPageLayout(t *testing.T) {
	for _, tc := range []struct {
		base     uint64
		pageSize int
		addr     uint64
		off      uint64
	}{
		{0x40600000, 4096, 0x40600000, 0},
		{0x40600010, 4096, 0x40600000, 0x10},
		{0x40600fff, 4096, 0x40600000, 0xfff},
		{0x40601000, 4096, 0x40601000, 0},
		{0x40612345, 65536, 0x40610000, 0x2345},
	} {
		addr, off := PageLayout(tc.base, tc.pageSize)
		if addr != tc.addr || off != tc.off {
			t.Errorf("PageLayout(0x%x, %d) = 0x%x, 0x%x; want 0x%x, 0x%x",
				tc.base, tc.pageSize, addr, off, tc.addr, tc.off)
		}
	}
}

func TestInitMapsWindowAtOffset(t *testing.T) {
	cfg := fakeMemDevice(t)
	m := NewManager(cfg)
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	defer m.Exit()

	regs, err := m.Regs()
	if err != nil {
		t.Fatal(err)
	}
	regs.Write(device.RegReadCtrl, 0x5)
	regs.WriteSigned(device.RegPeakPos, -100)

	data, err := os.ReadFile(cfg.Device)
	if err != nil {
		t.Fatal(err)
	}
	at := func(alias device.RegAlias) uint32 {
		pos := int(cfg.BaseAddr) + int(alias.Def().Offset)
		return binary.LittleEndian.Uint32(data[pos:])
	}
	if got := at(device.RegReadCtrl); got != 0x5 {
		t.Errorf("read_ctrl in device file: 0x%x", got)
	}
	if got := int32(at(device.RegPeakPos)); got != -100 {
		t.Errorf("peak_pos in device file: %d", got)
	}
}

func TestExitTwice(t *testing.T) {
	m := NewManager(fakeMemDevice(t))
	if err := m.Exit(); err != nil {
		t.Errorf("Exit without Init: %s", err)
	}
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	regs, _ := m.Regs()
	if err := m.Exit(); err != nil {
		t.Errorf("first Exit: %s", err)
	}
	if err := m.Exit(); err != nil {
		t.Errorf("second Exit: %s", err)
	}
	if regs.Attached() {
		t.Error("register view still attached after Exit")
	}
	if _, err := m.Regs(); !IsNotInitialized(err) {
		t.Errorf("Regs after Exit: %v", err)
	}
}

func TestReinitDoesNotLeak(t *testing.T) {
	cfg := fakeMemDevice(t)
	m := NewManager(cfg)
	for i := 0; i < 3; i++ {
		if err := m.Init(); err != nil {
			t.Fatal(err)
		}
	}
	if n := openFds(t, cfg.Device); n != 1 {
		t.Errorf("%d descriptors open to the device after repeated Init, want 1", n)
	}
	if err := m.Exit(); err != nil {
		t.Fatal(err)
	}
	if n := openFds(t, cfg.Device); n != 0 {
		t.Errorf("%d descriptors open to the device after Exit", n)
	}
}

func TestInitBadDevice(t *testing.T) {
	cfg := fakeMemDevice(t)
	cfg.Device = filepath.Join(t.TempDir(), "missing", "mem")
	m := NewManager(cfg)

	err := m.Init()
	var open ErrDeviceOpen
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrDeviceOpen, got %v", err)
	}
	if open.Path != cfg.Device {
		t.Errorf("error path %s", open.Path)
	}
	if !IsInitError(err) {
		t.Error("ErrDeviceOpen must be an init error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("cause is lost")
	}
	if _, err := m.Regs(); !IsNotInitialized(err) {
		t.Errorf("Regs after failed Init: %v", err)
	}
	if m.Mapped() {
		t.Error("failed Init reports mapped")
	}
}

func TestInitErrorLogKeepsPath(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := log.Init(buf, "error"); err != nil {
		t.Fatal(err)
	}
	defer log.Init(os.Stderr, "info")

	cfg := fakeMemDevice(t)
	cfg.Device = filepath.Join(t.TempDir(), "100%d", "mem")
	if err := NewManager(cfg).Init(); err == nil {
		t.Fatal("expected ErrDeviceOpen")
	}
	if !strings.Contains(buf.String(), cfg.Device) {
		t.Errorf("device path is not logged verbatim: %q", buf.String())
	}
}

func TestInitMapFailureReleasesDevice(t *testing.T) {
	// /dev/null can be opened but not mapped
	if _, err := os.Stat("/dev/null"); err != nil {
		t.Skip("/dev/null not available")
	}
	m := NewManager(&config.MemConfig{Device: "/dev/null", BaseAddr: 0x10, Size: device.BaseSize})
	err := m.Init()
	var mapping ErrMapping
	if !errors.As(err, &mapping) {
		t.Fatalf("expected ErrMapping, got %v", err)
	}
	if !IsInitError(err) {
		t.Error("ErrMapping must be an init error")
	}
	if m.file != nil {
		t.Error("device left open after failed mapping")
	}
	if _, err := m.Regs(); !IsNotInitialized(err) {
		t.Errorf("Regs after failed Init: %v", err)
	}
}
