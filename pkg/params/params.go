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

package params

import (
	"fmt"
)

// Absolute indices of the DUMMY parameters in the application parameter table.
// Indices below IndexBase belong to the host application.
const (
	IndexBase = 81

	OscASw        = 81
	OscBSw        = 82
	Osc1FiltOff   = 83
	Osc2FiltOff   = 84
	OscRawMode    = 85
	OscLockinMode = 86
	TrigSw        = 87
	Out1Sw        = 88
	Out2Sw        = 89
	SlowOut1Sw    = 90
	SlowOut2Sw    = 91
	SlowOut3Sw    = 92
	SlowOut4Sw    = 93
	In1           = 94
	In2           = 95
	Out1          = 96
	Out2          = 97
	SlowOut1      = 98
	SlowOut2      = 99
	SlowOut3      = 100
	SlowOut4      = 101
	OscA          = 102
	OscB          = 103
	Entrada       = 104
	LpfOn         = 105
	LpfVal        = 106
	HpfOn         = 107
	HpfVal        = 108
	PeakPos       = 109
	SgAmp         = 110
	SgWidth       = 111
	SgBase        = 112
	NoiseEnable   = 113
	NoiseAmp      = 114
	DriftEnable   = 115
	DriftTime     = 116
	ValFun        = 117
	NoiseStd      = 118
	ReadCtrl      = 119

	// ParamsNum is the size of the whole parameter table
	ParamsNum = 120
)

// Table is an index to value store the registers are synchronized with
type Table interface {
	Len() int
	Value(i int) float32
	SetValue(i int, v float32)
}

// Param is one entry of the parameter table
type Param struct {
	Name       string  `json:"name"`
	Value      float32 `json:"value"`
	Min        float32 `json:"min"`
	Max        float32 `json:"max"`
	FPGAUpdate bool    `json:"fpga_update"`
	ReadOnly   bool    `json:"read_only"`
}

// Params is the parameter table indexed by absolute parameter index.
// Entries below IndexBase are left empty.
type Params []Param

var _ Table = Params{}

func (p Params) Len() int {
	return len(p)
}

func (p Params) Value(i int) float32 {
	return p[i].Value
}

func (p Params) SetValue(i int, v float32) {
	p[i].Value = v
}

// Dummy returns the DUMMY part of the table
func (p Params) Dummy() []Param {
	return p[IndexBase:]
}

// Names returns the names of the DUMMY parameters in index order
func (p Params) Names() []string {
	names := make([]string, 0, ParamsNum-IndexBase)
	for i := IndexBase; i < len(p); i++ {
		names = append(names, p[i].Name)
	}
	return names
}

// Lookup returns the index of the parameter with given name
func (p Params) Lookup(name string) (int, error) {
	for i := IndexBase; i < len(p); i++ {
		if p[i].Name == name {
			return i, nil
		}
	}
	return 0, ErrUnknownParam{Name: name}
}

// Set assigns the value of a parameter by name. Read only parameters are
// refused since the next readback would overwrite them anyway.
func (p Params) Set(name string, value float32) error {
	i, err := p.Lookup(name)
	if err != nil {
		return err
	}
	if p[i].ReadOnly {
		return ErrReadOnlyParam{Name: name}
	}
	p[i].Value = value
	return nil
}

// Values returns name to value map of the DUMMY parameters
func (p Params) Values() map[string]float32 {
	values := make(map[string]float32, ParamsNum-IndexBase)
	for i := IndexBase; i < len(p); i++ {
		values[p[i].Name] = p[i].Value
	}
	return values
}

type entry struct {
	index int
	Param
}

func rw(index int, name string, value, min, max float32) entry {
	return entry{index, Param{Name: name, Value: value, Min: min, Max: max, FPGAUpdate: true}}
}

func ro(index int, name string, min, max float32) entry {
	return entry{index, Param{Name: name, Min: min, Max: max, ReadOnly: true}}
}

var defaults = []entry{
	rw(OscASw, "dummy_oscA_sw", 0, 0, 31),
	rw(OscBSw, "dummy_oscB_sw", 0, 0, 31),
	rw(Osc1FiltOff, "dummy_osc1_filt_off", 1, 0, 1),
	rw(Osc2FiltOff, "dummy_osc2_filt_off", 1, 0, 1),
	// UI only, never reaches the FPGA
	{OscRawMode, Param{Name: "dummy_osc_raw_mode", Min: 0, Max: 1}},
	{OscLockinMode, Param{Name: "dummy_osc_lockin_mode", Min: 0, Max: 1}},
	rw(TrigSw, "dummy_trig_sw", 0, 0, 255),
	rw(Out1Sw, "dummy_out1_sw", 1, 0, 15),
	rw(Out2Sw, "dummy_out2_sw", 0, 0, 15),
	rw(SlowOut1Sw, "dummy_slow_out1_sw", 0, 0, 15),
	rw(SlowOut2Sw, "dummy_slow_out2_sw", 0, 0, 15),
	rw(SlowOut3Sw, "dummy_slow_out3_sw", 0, 0, 15),
	rw(SlowOut4Sw, "dummy_slow_out4_sw", 0, 0, 15),
	ro(In1, "dummy_in1", -8192, 8191),
	ro(In2, "dummy_in2", -8192, 8191),
	ro(Out1, "dummy_out1", -8192, 8191),
	ro(Out2, "dummy_out2", -8192, 8191),
	ro(SlowOut1, "dummy_slow_out1", -2048, 2047),
	ro(SlowOut2, "dummy_slow_out2", -2048, 2047),
	ro(SlowOut3, "dummy_slow_out3", -2048, 2047),
	ro(SlowOut4, "dummy_slow_out4", -2048, 2047),
	ro(OscA, "dummy_oscA", -8192, 8191),
	ro(OscB, "dummy_oscB", -8192, 8191),
	rw(Entrada, "dummy_entrada", 0, 0, 7),
	rw(LpfOn, "dummy_lpf_on", 1, 0, 1),
	rw(LpfVal, "dummy_lpf_val", 6, 0, 15),
	rw(HpfOn, "dummy_hpf_on", 0, 0, 1),
	rw(HpfVal, "dummy_hpf_val", 0, 0, 15),
	rw(PeakPos, "dummy_peak_pos", 0, -8192, 8191),
	rw(SgAmp, "dummy_sg_amp", 4192, -8192, 8191),
	rw(SgWidth, "dummy_sg_width", 8191, -8192, 8191),
	rw(SgBase, "dummy_sg_base", 0, -8192, 8191),
	rw(NoiseEnable, "dummy_noise_enable", 0, 0, 1),
	rw(NoiseAmp, "dummy_noise_amp", 1024, -8192, 8191),
	rw(DriftEnable, "dummy_drift_enable", 0, 0, 1),
	rw(DriftTime, "dummy_drift_time", 13, 0, 15),
	ro(ValFun, "dummy_val_fun", -8192, 8191),
	ro(NoiseStd, "dummy_noise_std", -8192, 8191),
	rw(ReadCtrl, "dummy_read_ctrl", 0, 0, 7),
}

// NewDefaultParams returns the parameter table filled with default values
func NewDefaultParams() Params {
	p := make(Params, ParamsNum)
	for _, e := range defaults {
		p[e.index] = e.Param
	}
	return p
}

// ErrUnknownParam returned when there is no parameter with given name
type ErrUnknownParam struct {
	Name string
}

func (e ErrUnknownParam) Error() string {
	return fmt.Sprintf("Unknown parameter: %s", e.Name)
}

// ErrReadOnlyParam returned on attempt to set a parameter read from the FPGA
type ErrReadOnlyParam struct {
	Name string
}

func (e ErrReadOnlyParam) Error() string {
	return fmt.Sprintf("Parameter is read only: %s", e.Name)
}
