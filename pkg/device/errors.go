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

// ErrUnknownReg returned when there is no register with given name or offset
type ErrUnknownReg struct {
	Name string
}

func (e ErrUnknownReg) Error() string {
	return fmt.Sprintf("Unknown register: %s", e.Name)
}

// ErrReadOnlyReg returned on attempt to write a register driven by the FPGA
type ErrReadOnlyReg struct {
	Name string
}

func (e ErrReadOnlyReg) Error() string {
	return fmt.Sprintf("Register is read only: %s", e.Name)
}

// ErrWindowTooSmall returned when the window can not hold the register bank
type ErrWindowTooSmall struct {
	Size int
}

func (e ErrWindowTooSmall) Error() string {
	return fmt.Sprintf("Register window too small: %d bytes, need %d", e.Size, RegsLen)
}

type ErrUnaligned struct{}

func (e ErrUnaligned) Error() string {
	return "Register window is not 4 byte aligned"
}
