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

package layers

import (
	"fmt"
)

type ErrFrameTooShort struct {
	Size int
}

func (e ErrFrameTooShort) Error() string {
	return fmt.Sprintf("MLink frame too short: %d bytes", e.Size)
}

type ErrWrongSync struct {
	Sync uint16
}

func (e ErrWrongSync) Error() string {
	return fmt.Sprintf("Wrong MLink sync 0x%04x. Must be 0x%04x", e.Sync, MLinkSync)
}

// ErrWrongLen returned when the length field does not match the frame size
type ErrWrongLen struct {
	Len  uint16
	Size int
}

func (e ErrWrongLen) Error() string {
	return fmt.Sprintf("MLink length %d words does not match frame size %d bytes", e.Len, e.Size)
}

type ErrWrongCrc struct {
	Want uint32
	Got  uint32
}

func (e ErrWrongCrc) Error() string {
	return fmt.Sprintf("Wrong MLink CRC 0x%08x. Must be 0x%08x", e.Got, e.Want)
}

// ErrPayload returned when the payload can not be split into operations
type ErrPayload struct {
	What string
}

func (e ErrPayload) Error() string {
	return fmt.Sprintf("Malformed payload: %s", e.What)
}
