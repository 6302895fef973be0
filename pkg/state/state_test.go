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

package state

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rpsim/go-dummy/pkg/device"
	"github.com/rpsim/go-dummy/pkg/params"
)

func openState(t *testing.T) *State {
	t.Helper()
	s, err := NewState(filepath.Join(t.TempDir(), "db", "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParam(t *testing.T) {
	s := openState(t)
	if err := s.SetParam("dummy_sg_amp", -12.5); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetParam("dummy_sg_amp")
	if err != nil {
		t.Fatal(err)
	}
	if v != -12.5 {
		t.Errorf("got %v", v)
	}
	var notFound ErrNotFound
	if _, err := s.GetParam("dummy_nope"); !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	s := openState(t)
	p := params.NewDefaultParams()
	p.SetValue(params.SgWidth, 100)
	p.SetValue(params.Osc2FiltOff, 0)
	p.SetValue(params.In1, 55)
	saved, err := s.Save(p)
	if err != nil {
		t.Fatal(err)
	}

	loaded := params.NewDefaultParams()
	n, err := s.Load(loaded)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Value(params.SgWidth) != 100 || loaded.Value(params.Osc2FiltOff) != 0 {
		t.Errorf("values not restored: %v %v", loaded.Value(params.SgWidth), loaded.Value(params.Osc2FiltOff))
	}
	if loaded.Value(params.In1) != 0 {
		t.Error("read only parameter must not be stored")
	}
	writable := 0
	for i := params.IndexBase; i < params.ParamsNum; i++ {
		if !loaded[i].ReadOnly {
			writable++
		}
	}
	if n != writable || saved != writable {
		t.Errorf("saved %d, loaded %d values, want %d", saved, n, writable)
	}
}

func TestSnapshot(t *testing.T) {
	s := openState(t)
	regs := []*device.Reg{
		{Alias: device.RegSgAmp, Value: 4192},
		{Alias: device.RegReadCtrl, Value: 3},
	}
	if err := s.SaveSnapshot("boot", regs); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetSnapshot("boot")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"sg_amp": "0x00001060", "read_ctrl": "0x00000003"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := s.GetSnapshot("missing"); err == nil {
		t.Error("missing snapshot must fail")
	}
}
