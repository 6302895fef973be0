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

package dummy

import (
	"github.com/rpsim/go-dummy/pkg/device"
	"github.com/rpsim/go-dummy/pkg/log"
)

// Freeze saves read_ctrl and sets its freeze bit so the FPGA stops updating
// the sampled registers. At most one freeze may be in flight: a second Freeze
// before Restore overwrites the saved value with the frozen one.
func (d *Device) Freeze() error {
	regs, err := d.regs()
	if err != nil {
		return err
	}
	if d.frozen {
		log.Warning("DUMMY freeze while already frozen, saved read_ctrl 0x%x is lost", d.savedCtrl)
	}
	d.savedCtrl = regs.Read(device.RegReadCtrl)
	regs.Write(device.RegReadCtrl, d.savedCtrl|device.ReadCtrlFreeze)
	d.frozen = true
	return nil
}

// Restore writes the saved value back into read_ctrl. Without a preceding
// Freeze the empty slot marker is written.
func (d *Device) Restore() error {
	regs, err := d.regs()
	if err != nil {
		return err
	}
	if !d.frozen {
		log.Warning("DUMMY restore without freeze, writing read_ctrl 0x%x", d.savedCtrl)
	}
	regs.Write(device.RegReadCtrl, d.savedCtrl)
	d.frozen = false
	return nil
}

// SavedCtrl returns the read_ctrl value saved by the last Freeze
func (d *Device) SavedCtrl() uint32 {
	return d.savedCtrl
}
