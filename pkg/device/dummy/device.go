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

// Package dummy keeps the parameter table of the host application in sync
// with the registers of the DUMMY FPGA core.
//
// A Device is not safe for concurrent use. It is meant to have a single owner
// which serializes every call.
package dummy

import (
	"github.com/pkg/errors"

	"github.com/rpsim/go-dummy/pkg/config"
	"github.com/rpsim/go-dummy/pkg/device"
	deviceifc "github.com/rpsim/go-dummy/pkg/device/ifc"
	"github.com/rpsim/go-dummy/pkg/log"
	"github.com/rpsim/go-dummy/pkg/mem"
)

// NoSavedCtrl marks the saved read_ctrl slot as empty
const NoSavedCtrl uint32 = 0xffffffff

type Device struct {
	mapper deviceifc.Mapper
	// read_ctrl value saved by Freeze
	savedCtrl uint32
	frozen    bool
}

var _ deviceifc.Device = &Device{}

// New ...
func New(mapper deviceifc.Mapper) *Device {
	return &Device{
		mapper:    mapper,
		savedCtrl: NoSavedCtrl,
	}
}

// NewDevice creates a device backed by the memory device from the config
func NewDevice(cfg *config.MemConfig) *Device {
	if cfg.Simulated {
		return New(mem.NewBuffer())
	}
	return New(mem.NewManager(cfg))
}

// Init maps the DUMMY registers
func (d *Device) Init() error {
	if err := d.mapper.Init(); err != nil {
		return errors.Wrap(err, "DUMMY init failed")
	}
	return nil
}

// Exit unmaps the DUMMY registers. Calling it more than once is harmless.
func (d *Device) Exit() error {
	if err := d.mapper.Exit(); err != nil {
		return errors.Wrap(err, "DUMMY exit failed")
	}
	return nil
}

func (d *Device) regs() (*device.Regs, error) {
	regs, err := d.mapper.Regs()
	if err != nil {
		log.Error("DUMMY registers are not accessible: %s", err)
		return nil, err
	}
	return regs, nil
}

// Reset writes the default value into every register
func (d *Device) Reset() error {
	regs, err := d.regs()
	if err != nil {
		return err
	}
	log.Info("Resetting DUMMY registers to defaults")
	regs.Reset()
	return nil
}

// RegRead ...
func (d *Device) RegRead(name string) (*device.Reg, error) {
	alias, err := device.RegByName(name)
	if err != nil {
		return nil, err
	}
	regs, err := d.regs()
	if err != nil {
		return nil, err
	}
	return &device.Reg{Alias: alias, Value: regs.Read(alias)}, nil
}

// RegReadAll ...
func (d *Device) RegReadAll() ([]*device.Reg, error) {
	regs, err := d.regs()
	if err != nil {
		return nil, err
	}
	return regs.Snapshot(), nil
}

// RegWrite writes the raw value into a register. Registers driven by the
// FPGA are refused.
func (d *Device) RegWrite(name string, value uint32) error {
	alias, err := device.RegByName(name)
	if err != nil {
		return err
	}
	if !alias.Def().Writable {
		return device.ErrReadOnlyReg{Name: name}
	}
	regs, err := d.regs()
	if err != nil {
		return err
	}
	log.Debug("Writing register %s: 0x%08x", name, value)
	regs.Write(alias, value)
	return nil
}
