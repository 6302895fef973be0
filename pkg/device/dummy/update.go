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
	"github.com/rpsim/go-dummy/pkg/params"
)

// Binding ties a parameter to the register it mirrors
type Binding struct {
	Param int
	Reg   device.RegAlias
	// Write is false for registers driven by the FPGA
	Write bool
}

// Bindings is the correspondence between parameters and registers.
// osc_ctrl is not listed: it is packed from two flag parameters.
var Bindings = []Binding{
	{params.OscASw, device.RegOscASw, true},
	{params.OscBSw, device.RegOscBSw, true},
	{params.TrigSw, device.RegTrigSw, true},
	{params.Out1Sw, device.RegOut1Sw, true},
	{params.Out2Sw, device.RegOut2Sw, true},
	{params.SlowOut1Sw, device.RegSlowOut1Sw, true},
	{params.SlowOut2Sw, device.RegSlowOut2Sw, true},
	{params.SlowOut3Sw, device.RegSlowOut3Sw, true},
	{params.SlowOut4Sw, device.RegSlowOut4Sw, true},
	{params.In1, device.RegIn1, false},
	{params.In2, device.RegIn2, false},
	{params.Out1, device.RegOut1, false},
	{params.Out2, device.RegOut2, false},
	{params.SlowOut1, device.RegSlowOut1, false},
	{params.SlowOut2, device.RegSlowOut2, false},
	{params.SlowOut3, device.RegSlowOut3, false},
	{params.SlowOut4, device.RegSlowOut4, false},
	{params.OscA, device.RegOscA, false},
	{params.OscB, device.RegOscB, false},
	{params.Entrada, device.RegEntrada, true},
	{params.LpfOn, device.RegLpfOn, true},
	{params.LpfVal, device.RegLpfVal, true},
	{params.HpfOn, device.RegHpfOn, true},
	{params.HpfVal, device.RegHpfVal, true},
	{params.PeakPos, device.RegPeakPos, true},
	{params.SgAmp, device.RegSgAmp, true},
	{params.SgWidth, device.RegSgWidth, true},
	{params.SgBase, device.RegSgBase, true},
	{params.NoiseEnable, device.RegNoiseEnable, true},
	{params.NoiseAmp, device.RegNoiseAmp, true},
	{params.DriftEnable, device.RegDriftEnable, true},
	{params.DriftTime, device.RegDriftTime, true},
	{params.ValFun, device.RegValFun, false},
	{params.NoiseStd, device.RegNoiseStd, false},
	{params.ReadCtrl, device.RegReadCtrl, true},
}

// toReg truncates toward zero like a C cast to int. Negative values end up
// in two's complement.
func toReg(v float32) uint32 {
	return uint32(int64(v))
}

func fromReg(def *device.RegDef, raw uint32) float32 {
	if def.Signed {
		return float32(int32(raw))
	}
	return float32(raw)
}

func flag(v float32) uint32 {
	return uint32(int64(v))
}

// PackOscCtrl builds osc_ctrl from the two filter flags
func PackOscCtrl(osc1FiltOff, osc2FiltOff float32) uint32 {
	return (flag(osc2FiltOff) << 1) + flag(osc1FiltOff)
}

// UnpackOscCtrl splits osc_ctrl into the two filter flags
func UnpackOscCtrl(raw uint32) (osc1FiltOff, osc2FiltOff float32) {
	return float32(raw & device.OscCtrlOsc1FiltOff), float32((raw >> 1) & 1)
}

// ApplySettings writes the parameter table into the registers.
// Values are truncated to integers, they are not checked against the limits.
func (d *Device) ApplySettings(t params.Table) error {
	regs, err := d.regs()
	if err != nil {
		return err
	}
	for _, b := range Bindings {
		if !b.Write {
			continue
		}
		regs.Write(b.Reg, toReg(t.Value(b.Param)))
	}
	regs.Write(device.RegOscCtrl, PackOscCtrl(t.Value(params.Osc1FiltOff), t.Value(params.Osc2FiltOff)))
	return nil
}

// RefreshReadback copies every register into the parameter table.
// Signed registers are sign extended from the whole 32 bit word.
func (d *Device) RefreshReadback(t params.Table) error {
	regs, err := d.regs()
	if err != nil {
		return err
	}
	for _, b := range Bindings {
		t.SetValue(b.Param, fromReg(b.Reg.Def(), regs.Read(b.Reg)))
	}
	osc1, osc2 := UnpackOscCtrl(regs.Read(device.RegOscCtrl))
	t.SetValue(params.Osc1FiltOff, osc1)
	t.SetValue(params.Osc2FiltOff, osc2)
	return nil
}

// ReadConsistent freezes sampling, reads the registers back and restores
// read_ctrl, so the values read belong to the same sample. The table gets
// the restored read_ctrl, otherwise applying it would freeze the FPGA for good.
func (d *Device) ReadConsistent(t params.Table) error {
	if err := d.Freeze(); err != nil {
		return err
	}
	saved := d.savedCtrl
	readErr := d.RefreshReadback(t)
	if err := d.Restore(); err != nil {
		return err
	}
	if readErr != nil {
		return readErr
	}
	t.SetValue(params.ReadCtrl, float32(saved))
	return nil
}
