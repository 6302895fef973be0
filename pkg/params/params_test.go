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
	"errors"
	"testing"
)

func TestDefaultParamsComplete(t *testing.T) {
	p := NewDefaultParams()
	if p.Len() != ParamsNum {
		t.Fatalf("table length %d", p.Len())
	}
	seen := map[string]bool{}
	for i := IndexBase; i < ParamsNum; i++ {
		if p[i].Name == "" {
			t.Errorf("index %d has no parameter", i)
		}
		if seen[p[i].Name] {
			t.Errorf("duplicate name %s", p[i].Name)
		}
		seen[p[i].Name] = true
		if p[i].Min > p[i].Max {
			t.Errorf("%s: min %v > max %v", p[i].Name, p[i].Min, p[i].Max)
		}
		if p[i].ReadOnly && p[i].FPGAUpdate {
			t.Errorf("%s: read only parameter updates the FPGA", p[i].Name)
		}
	}
	for i := 0; i < IndexBase; i++ {
		if p[i].Name != "" {
			t.Errorf("index %d below the DUMMY range is used by %s", i, p[i].Name)
		}
	}
}

func TestDefaultValues(t *testing.T) {
	p := NewDefaultParams()
	for _, tc := range []struct {
		index int
		value float32
	}{
		{Osc1FiltOff, 1},
		{Osc2FiltOff, 1},
		{OscRawMode, 0},
		{Out1Sw, 1},
		{LpfOn, 1},
		{LpfVal, 6},
		{SgAmp, 4192},
		{SgWidth, 8191},
		{NoiseAmp, 1024},
		{DriftTime, 13},
		{ReadCtrl, 0},
	} {
		if v := p.Value(tc.index); v != tc.value {
			t.Errorf("%s: %v, want %v", p[tc.index].Name, v, tc.value)
		}
	}
	if p[OscRawMode].FPGAUpdate || p[OscLockinMode].FPGAUpdate {
		t.Error("oscilloscope mode flags must not update the FPGA")
	}
}

func TestLookupAndSet(t *testing.T) {
	p := NewDefaultParams()
	i, err := p.Lookup("dummy_sg_width")
	if err != nil || i != SgWidth {
		t.Fatalf("Lookup: %d %v", i, err)
	}
	if err := p.Set("dummy_sg_width", 100); err != nil {
		t.Fatal(err)
	}
	if p.Value(SgWidth) != 100 {
		t.Errorf("value %v", p.Value(SgWidth))
	}

	var unknown ErrUnknownParam
	if err := p.Set("dummy_nope", 1); !errors.As(err, &unknown) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
	var readOnly ErrReadOnlyParam
	if err := p.Set("dummy_in1", 1); !errors.As(err, &readOnly) {
		t.Errorf("expected ErrReadOnlyParam, got %v", err)
	}
	if len(p.Names()) != ParamsNum-IndexBase || len(p.Values()) != ParamsNum-IndexBase {
		t.Error("Names/Values must list every DUMMY parameter")
	}
}
