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
	"fmt"

	"github.com/pkg/errors"
)

// ErrDeviceOpen returned when the memory device can not be opened.
// Initialization must not proceed.
type ErrDeviceOpen struct {
	Path string
	Err  error
}

func (e ErrDeviceOpen) Error() string {
	return fmt.Sprintf("open(%s) failed: %s", e.Path, e.Err)
}

func (e ErrDeviceOpen) Unwrap() error {
	return e.Err
}

// ErrMapping returned when the register window can not be mapped.
// Resources acquired before the failure are already released.
type ErrMapping struct {
	Addr uint64
	Size int
	Err  error
}

func (e ErrMapping) Error() string {
	return fmt.Sprintf("mmap() of 0x%x bytes at 0x%08x failed: %s", e.Size, e.Addr, e.Err)
}

func (e ErrMapping) Unwrap() error {
	return e.Err
}

// ErrUnmap returned when unmapping fails. The mapping handle is cleared anyway.
type ErrUnmap struct {
	Err error
}

func (e ErrUnmap) Error() string {
	return fmt.Sprintf("munmap() failed: %s", e.Err)
}

func (e ErrUnmap) Unwrap() error {
	return e.Err
}

// ErrNotInitialized returned when the registers are accessed without an active mapping
type ErrNotInitialized struct{}

func (e ErrNotInitialized) Error() string {
	return "DUMMY registers are not mapped"
}

// IsInitError reports whether err is one of the errors Init fails with
func IsInitError(err error) bool {
	var open ErrDeviceOpen
	var mapping ErrMapping
	var unmap ErrUnmap
	return errors.As(err, &open) || errors.As(err, &mapping) || errors.As(err, &unmap)
}

// IsNotInitialized ...
func IsNotInitialized(err error) bool {
	var notInit ErrNotInitialized
	return errors.As(err, &notInit)
}
