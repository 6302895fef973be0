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
	"github.com/rpsim/go-dummy/pkg/device"
	"github.com/rpsim/go-dummy/pkg/params"
)

// Mapper provides the register view of the mapped DUMMY window
type Mapper interface {
	Init() error
	Exit() error
	Regs() (*device.Regs, error)
}

type Device interface {
	Init() error
	Exit() error

	ApplySettings(t params.Table) error
	RefreshReadback(t params.Table) error
	ReadConsistent(t params.Table) error

	Freeze() error
	Restore() error
	Reset() error

	RegRead(name string) (*device.Reg, error)
	RegReadAll() ([]*device.Reg, error)
	RegWrite(name string, value uint32) error
}
