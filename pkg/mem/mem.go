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

// Package mem maps the physical register window of the DUMMY core into the
// process address space.
//
// The window is mapped from the memory device (/dev/mem) with mmap(). The
// base address does not have to be page aligned: the page containing it is
// mapped and the register view starts at the base address offset inside
// that page. Init must succeed before the registers are used, Exit releases
// the mapping and the device file.
package mem

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/rpsim/go-dummy/pkg/config"
	"github.com/rpsim/go-dummy/pkg/device"
	"github.com/rpsim/go-dummy/pkg/log"
)

// PageLayout returns the page aligned address containing base and the
// offset of base inside that page. pageSize must be a power of two.
func PageLayout(base uint64, pageSize int) (pageAddr uint64, pageOff uint64) {
	pageAddr = base &^ (uint64(pageSize) - 1)
	return pageAddr, base - pageAddr
}

// Manager owns the mapped region: the open memory device and the mapped
// pages. Only one Manager should be initialized per process.
type Manager struct {
	cfg  *config.MemConfig
	file *os.File
	// mapped pages as returned by mmap()
	mapped []byte
	regs   *device.Regs
}

// NewManager ...
func NewManager(cfg *config.MemConfig) *Manager {
	return &Manager{cfg: cfg}
}

// Init maps the register window. A previous mapping is released first.
func (m *Manager) Init() error {
	if err := m.cleanup(); err != nil {
		return err
	}

	log.Debug("Opening memory device: %s", m.cfg.Device)
	file, err := os.OpenFile(m.cfg.Device, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		e := ErrDeviceOpen{Path: m.cfg.Device, Err: err}
		log.Error("%s", e)
		return e
	}
	m.file = file

	pageAddr, pageOff := PageLayout(m.cfg.BaseAddr, unix.Getpagesize())
	length := int(pageOff + m.cfg.Size)
	log.Debug("Mapping 0x%x bytes at page 0x%08x, register offset 0x%x", length, pageAddr, pageOff)

	mapped, err := unix.Mmap(int(file.Fd()), int64(pageAddr), length,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		e := ErrMapping{Addr: pageAddr, Size: length, Err: err}
		log.Error("%s", e)
		m.cleanup()
		return e
	}
	m.mapped = mapped

	regs, err := device.NewRegs(mapped[pageOff : pageOff+m.cfg.Size])
	if err != nil {
		e := ErrMapping{Addr: pageAddr, Size: length, Err: err}
		log.Error("%s", e)
		m.cleanup()
		return e
	}
	m.regs = regs
	log.Info("DUMMY registers mapped: base 0x%08x size 0x%x", m.cfg.BaseAddr, m.cfg.Size)
	return nil
}

// Exit unmaps the register window and closes the memory device.
// It is a no-op when nothing is mapped.
func (m *Manager) Exit() error {
	return m.cleanup()
}

// cleanup always leaves the manager without mapping and without open file,
// even when munmap() fails.
func (m *Manager) cleanup() error {
	var result error
	if m.regs != nil {
		m.regs.Detach()
		m.regs = nil
	}
	if m.mapped != nil {
		if err := unix.Munmap(m.mapped); err != nil {
			result = ErrUnmap{Err: err}
			log.Error("%s", result)
		}
		m.mapped = nil
	}
	if m.file != nil {
		m.file.Close()
		m.file = nil
	}
	return result
}

// Regs returns the register view of the active mapping
func (m *Manager) Regs() (*device.Regs, error) {
	if m.regs == nil {
		return nil, ErrNotInitialized{}
	}
	return m.regs, nil
}

// Mapped reports whether the register window is mapped
func (m *Manager) Mapped() bool {
	return m.regs != nil
}
