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

package ifc

import (
	"net/http"

	"github.com/rpsim/go-dummy/pkg/device"
	"github.com/rpsim/go-dummy/pkg/layers"
	"github.com/rpsim/go-dummy/pkg/params"
)

// ControlServer is the single owner of the DUMMY device. Every method is
// serialized, so API and register server requests never interleave.
type ControlServer interface {
	Run() error

	Params() params.Params
	// SetParams sets parameter values by name and applies the table
	SetParams(values map[string]float32) (params.Params, error)
	Readback() (params.Params, error)
	SaveParams() (int, error)
	LoadParams() (int, error)

	Freeze() error
	Restore() error
	Reset() error

	RegRead(name string) (*device.Reg, error)
	RegReadAll() ([]*device.Reg, error)
	RegWrite(name string, value uint32) error
	// SaveSnapshot stores the current register values under the name
	SaveSnapshot(name string) error
	Snapshot(name string) (map[string]string, error)

	// RegOps executes register operations addressed by offset. Read values
	// are stored into the operations.
	RegOps(ops []*layers.RegOp) error
	MemOp(op *layers.MemOp) error
}

type ApiServer interface {
	Run() error
	Handler() http.Handler
}

type RegServer interface {
	Run() error
}
