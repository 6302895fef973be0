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
	"sync/atomic"
	"unsafe"
)

// Regs is a typed view of the register bank over a byte window.
// Every access is a single aligned 32 bit load or store, so the FPGA
// never sees a register torn into byte accesses.
type Regs struct {
	mem []byte
}

// Reg is a register together with the value it held when it was read
type Reg struct {
	Alias RegAlias
	Value uint32
}

// Hex ...
func (r *Reg) Hex() (string, string) {
	return r.Alias.Def().Hex(r.Value)
}

// NewRegs creates a view over mem. mem must hold the whole register bank
// and start on a 4 byte boundary.
func NewRegs(mem []byte) (*Regs, error) {
	if len(mem) < RegsLen {
		return nil, ErrWindowTooSmall{Size: len(mem)}
	}
	if uintptr(unsafe.Pointer(&mem[0]))%RegSize != 0 {
		return nil, ErrUnaligned{}
	}
	return &Regs{mem: mem[:RegsLen:RegsLen]}, nil
}

// Detach makes the view unusable. It is called when the mapping backing
// the view goes away; any later access panics instead of touching
// unmapped memory.
func (r *Regs) Detach() {
	r.mem = nil
}

// Attached reports whether the view still points to a register window
func (r *Regs) Attached() bool {
	return r != nil && r.mem != nil
}

func (r *Regs) word(alias RegAlias) *uint32 {
	off := int(alias) * RegSize
	b := r.mem[off : off+RegSize]
	return (*uint32)(unsafe.Pointer(&b[0]))
}

// Read returns the raw 32 bit word of the register
func (r *Regs) Read(alias RegAlias) uint32 {
	return atomic.LoadUint32(r.word(alias))
}

// ReadSigned returns the register word as a signed integer
func (r *Regs) ReadSigned(alias RegAlias) int32 {
	return int32(r.Read(alias))
}

// Write stores the raw 32 bit word into the register
func (r *Regs) Write(alias RegAlias, value uint32) {
	atomic.StoreUint32(r.word(alias), value)
}

// WriteSigned ...
func (r *Regs) WriteSigned(alias RegAlias, value int32) {
	r.Write(alias, uint32(value))
}

// Snapshot reads all registers in bank order
func (r *Regs) Snapshot() []*Reg {
	regs := make([]*Reg, 0, RegAliasLimit)
	for alias := RegAlias(0); alias < RegAliasLimit; alias++ {
		regs = append(regs, &Reg{Alias: alias, Value: r.Read(alias)})
	}
	return regs
}

// Reset writes the default value into every register
func (r *Regs) Reset() {
	for alias := RegAlias(0); alias < RegAliasLimit; alias++ {
		r.WriteSigned(alias, RegMap[alias].Default)
	}
}
