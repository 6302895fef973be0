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

package device

import (
	"fmt"
)

// Register bank of the DUMMY FPGA core. Order and offsets must match the
// HDL exactly, every register is one 32 bit word.

const (
	// BaseAddr is the physical address of the DUMMY core
	BaseAddr = 0x40600000
	// BaseSize is the size of the DUMMY core window in bytes
	BaseSize = 0x190
	// RegSize is the width of every register in bytes
	RegSize = 4
)

type RegAlias int

const (
	RegOscASw RegAlias = iota
	RegOscBSw
	RegOscCtrl
	RegTrigSw
	RegOut1Sw
	RegOut2Sw
	RegSlowOut1Sw
	RegSlowOut2Sw
	RegSlowOut3Sw
	RegSlowOut4Sw
	RegIn1
	RegIn2
	RegOut1
	RegOut2
	RegSlowOut1
	RegSlowOut2
	RegSlowOut3
	RegSlowOut4
	RegOscA
	RegOscB
	RegEntrada
	RegLpfOn
	RegLpfVal
	RegHpfOn
	RegHpfVal
	RegPeakPos
	RegSgAmp
	RegSgWidth
	RegSgBase
	RegNoiseEnable
	RegNoiseAmp
	RegDriftEnable
	RegDriftTime
	RegValFun
	RegNoiseStd
	RegReadCtrl
	RegAliasLimit
)

// RegDef describes one register of the bank
type RegDef struct {
	Name   string
	Offset uint16
	Signed bool
	// Bits is the number of data bits, the rest of the word is reserved
	Bits     uint
	Default  int32
	Writable bool
	Desc     string
}

// Mask returns the mask of the data bits
func (d *RegDef) Mask() uint32 {
	if d.Bits >= 32 {
		return 0xffffffff
	}
	return (uint32(1) << d.Bits) - 1
}

// Hex returns offset and value as hexadecimal strings
func (d *RegDef) Hex(value uint32) (string, string) {
	return fmt.Sprintf("0x%03x", d.Offset), fmt.Sprintf("0x%08x", value)
}

// osc_ctrl bits
const (
	OscCtrlOsc1FiltOff uint32 = 0x1
	OscCtrlOsc2FiltOff uint32 = 0x2
)

// read_ctrl bits: [unused, start_clk, freeze]
const (
	ReadCtrlFreeze   uint32 = 0x1
	ReadCtrlStartClk uint32 = 0x2
)

var RegMap = map[RegAlias]*RegDef{
	RegOscASw:      {Name: "oscA_sw", Offset: 0x000, Bits: 5, Writable: true, Desc: "switch for muxer oscA"},
	RegOscBSw:      {Name: "oscB_sw", Offset: 0x004, Bits: 5, Writable: true, Desc: "switch for muxer oscB"},
	RegOscCtrl:     {Name: "osc_ctrl", Offset: 0x008, Bits: 2, Default: 3, Writable: true, Desc: "oscilloscope control [osc2_filt_off,osc1_filt_off]"},
	RegTrigSw:      {Name: "trig_sw", Offset: 0x00C, Bits: 8, Writable: true, Desc: "Select the external trigger signal"},
	RegOut1Sw:      {Name: "out1_sw", Offset: 0x010, Bits: 4, Default: 1, Writable: true, Desc: "switch for muxer out1"},
	RegOut2Sw:      {Name: "out2_sw", Offset: 0x014, Bits: 4, Writable: true, Desc: "switch for muxer out2"},
	RegSlowOut1Sw:  {Name: "slow_out1_sw", Offset: 0x018, Bits: 4, Writable: true, Desc: "switch for muxer slow_out1"},
	RegSlowOut2Sw:  {Name: "slow_out2_sw", Offset: 0x01C, Bits: 4, Writable: true, Desc: "switch for muxer slow_out2"},
	RegSlowOut3Sw:  {Name: "slow_out3_sw", Offset: 0x020, Bits: 4, Writable: true, Desc: "switch for muxer slow_out3"},
	RegSlowOut4Sw:  {Name: "slow_out4_sw", Offset: 0x024, Bits: 4, Writable: true, Desc: "switch for muxer slow_out4"},
	RegIn1:         {Name: "in1", Offset: 0x028, Signed: true, Bits: 14, Desc: "Input signal IN1"},
	RegIn2:         {Name: "in2", Offset: 0x02C, Signed: true, Bits: 14, Desc: "Input signal IN2"},
	RegOut1:        {Name: "out1", Offset: 0x030, Signed: true, Bits: 14, Desc: "signal for RP RF DAC Out1"},
	RegOut2:        {Name: "out2", Offset: 0x034, Signed: true, Bits: 14, Desc: "signal for RP RF DAC Out2"},
	RegSlowOut1:    {Name: "slow_out1", Offset: 0x038, Bits: 12, Desc: "signal for RP slow DAC 1"},
	RegSlowOut2:    {Name: "slow_out2", Offset: 0x03C, Bits: 12, Desc: "signal for RP slow DAC 2"},
	RegSlowOut3:    {Name: "slow_out3", Offset: 0x040, Bits: 12, Desc: "signal for RP slow DAC 3"},
	RegSlowOut4:    {Name: "slow_out4", Offset: 0x044, Bits: 12, Desc: "signal for RP slow DAC 4"},
	RegOscA:        {Name: "oscA", Offset: 0x048, Signed: true, Bits: 14, Desc: "signal for Oscilloscope Channel A"},
	RegOscB:        {Name: "oscB", Offset: 0x04C, Signed: true, Bits: 14, Desc: "signal for Oscilloscope Channel B"},
	RegEntrada:     {Name: "entrada", Offset: 0x050, Bits: 3, Writable: true, Desc: "input selector: in1, in2, in1+in2, in1-in2"},
	RegLpfOn:       {Name: "lpf_on", Offset: 0x054, Bits: 1, Default: 1, Writable: true, Desc: "low pass filter enable"},
	RegLpfVal:      {Name: "lpf_val", Offset: 0x058, Bits: 4, Default: 6, Writable: true, Desc: "low pass filter time constant"},
	RegHpfOn:       {Name: "hpf_on", Offset: 0x05C, Bits: 1, Writable: true, Desc: "high pass filter enable"},
	RegHpfVal:      {Name: "hpf_val", Offset: 0x060, Bits: 4, Writable: true, Desc: "high pass filter time constant"},
	RegPeakPos:     {Name: "peak_pos", Offset: 0x064, Signed: true, Bits: 14, Writable: true, Desc: "peak position"},
	RegSgAmp:       {Name: "sg_amp", Offset: 0x068, Signed: true, Bits: 14, Default: 4192, Writable: true, Desc: "signal generator amplitude"},
	RegSgWidth:     {Name: "sg_width", Offset: 0x06C, Signed: true, Bits: 14, Default: 8191, Writable: true, Desc: "signal generator width"},
	RegSgBase:      {Name: "sg_base", Offset: 0x070, Signed: true, Bits: 14, Writable: true, Desc: "signal generator base"},
	RegNoiseEnable: {Name: "noise_enable", Offset: 0x074, Bits: 1, Writable: true, Desc: "noise enable"},
	RegNoiseAmp:    {Name: "noise_amp", Offset: 0x078, Signed: true, Bits: 14, Default: 1024, Writable: true, Desc: "noise amplitude"},
	RegDriftEnable: {Name: "drift_enable", Offset: 0x07C, Bits: 1, Writable: true, Desc: "drift enable"},
	RegDriftTime:   {Name: "drift_time", Offset: 0x080, Bits: 4, Default: 13, Writable: true, Desc: "drift time constant"},
	RegValFun:      {Name: "val_fun", Offset: 0x084, Signed: true, Bits: 14, Desc: "simulated function value"},
	RegNoiseStd:    {Name: "noise_std", Offset: 0x088, Signed: true, Bits: 14, Desc: "noise standard deviation"},
	RegReadCtrl:    {Name: "read_ctrl", Offset: 0x08C, Bits: 3, Writable: true, Desc: "[unused,start_clk,Freeze]"},
}

// RegsLen is the number of bytes the register bank occupies
const RegsLen = int(RegAliasLimit) * RegSize

// The last register has to fit before the end of the window.
var _ [BaseSize - RegsLen]struct{}

var regByName = func() map[string]RegAlias {
	m := make(map[string]RegAlias, len(RegMap))
	for alias, def := range RegMap {
		m[def.Name] = alias
	}
	return m
}()

// RegByName returns the alias of the register with given name
func RegByName(name string) (RegAlias, error) {
	alias, ok := regByName[name]
	if !ok {
		return 0, ErrUnknownReg{Name: name}
	}
	return alias, nil
}

// RegByOffset returns the alias of the register at given byte offset
func RegByOffset(offset uint16) (RegAlias, error) {
	if offset%RegSize != 0 || int(offset) >= RegsLen {
		return 0, ErrUnknownReg{Name: fmt.Sprintf("0x%03x", offset)}
	}
	return RegAlias(offset / RegSize), nil
}

// Def returns the definition of the register
func (a RegAlias) Def() *RegDef {
	return RegMap[a]
}

func (a RegAlias) String() string {
	if def, ok := RegMap[a]; ok {
		return def.Name
	}
	return fmt.Sprintf("RegAlias(%d)", int(a))
}
