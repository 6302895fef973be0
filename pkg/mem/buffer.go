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

package mem

import (
	"unsafe"

	"github.com/rpsim/go-dummy/pkg/device"
	"github.com/rpsim/go-dummy/pkg/log"
)

// Buffer keeps the register window in process memory. It stands in for the
// FPGA on hosts without one. Register values survive Exit and Init.
type Buffer struct {
	words []uint32
	regs  *device.Regs
}

// NewBuffer ...
func NewBuffer() *Buffer {
	return &Buffer{words: make([]uint32, device.BaseSize/device.RegSize)}
}

func (b *Buffer) Init() error {
	b.Exit()
	window := unsafe.Slice((*byte)(unsafe.Pointer(&b.words[0])), device.BaseSize)
	regs, err := device.NewRegs(window)
	if err != nil {
		return err
	}
	b.regs = regs
	log.Info("DUMMY registers simulated in memory")
	return nil
}

func (b *Buffer) Exit() error {
	if b.regs != nil {
		b.regs.Detach()
		b.regs = nil
	}
	return nil
}

func (b *Buffer) Regs() (*device.Regs, error) {
	if b.regs == nil {
		return nil, ErrNotInitialized{}
	}
	return b.regs, nil
}
