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
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// RegLayerNum identifies the layer
	RegLayerNum = 1997
	// RegOpSize is the size of one register operation in bytes
	RegOpSize = 8
	// RegMaxOps is how many operations fit into one frame
	RegMaxOps = MLinkMaxPayloadSize / RegOpSize
)

// Reg is a register of the DUMMY window addressed by its byte offset
type Reg struct {
	Addr  uint16
	Value uint32
}

// Hex ...
func (r *Reg) Hex() (string, string) {
	return fmt.Sprintf("0x%03x", r.Addr), fmt.Sprintf("0x%08x", r.Value)
}

// NewRegFromHex ...
func NewRegFromHex(hexAddr, hexValue string) (*Reg, error) {
	addr, err := strconv.ParseUint(hexAddr, 0, 15)
	if err != nil {
		return nil, err
	}
	value, err := strconv.ParseUint(hexValue, 0, 32)
	if err != nil {
		return nil, err
	}
	return &Reg{Addr: uint16(addr), Value: uint32(value)}, nil
}

// RegOp is a single register read or write. On the wire it is two words:
// read flag and 15 bit address, then the value. Value of a read request
// is ignored and carries the read value in the response.
type RegOp struct {
	Read bool
	*Reg
}

type RegLayer struct {
	layers.BaseLayer
	RegOps []*RegOp
}

var RegLayerType = gopacket.RegisterLayerType(RegLayerNum,
	gopacket.LayerTypeMetadata{Name: "RegLayerType", Decoder: gopacket.DecodeFunc(DecodeRegLayer)})

// LayerType returns the type of the Reg layer in the layer catalog
func (reg *RegLayer) LayerType() gopacket.LayerType {
	return RegLayerType
}

// Serialize serializes the register operations to a buffer of len(RegOps)*RegOpSize bytes
func (reg *RegLayer) Serialize(buf []byte) {
	for i, op := range reg.RegOps {
		offset := i * RegOpSize
		word := uint32(op.Addr) & 0x7fff
		if op.Read {
			word |= 0x80000000
		}
		binary.LittleEndian.PutUint32(buf[offset:offset+4], word)
		binary.LittleEndian.PutUint32(buf[offset+4:offset+8], op.Value)
	}
}

// SerializeTo serializes the register read/write layer into bytes and writes the bytes to the SerializeBuffer
func (reg *RegLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(len(reg.RegOps) * RegOpSize)
	if err != nil {
		return err
	}
	reg.Serialize(bytes)
	return nil
}

func (reg *RegLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data)%RegOpSize != 0 {
		df.SetTruncated()
		return ErrPayload{What: fmt.Sprintf("%d bytes is not a whole number of register operations", len(data))}
	}
	reg.BaseLayer = layers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}
	reg.RegOps = make([]*RegOp, 0, len(data)/RegOpSize)
	for offset := 0; offset < len(data); offset += RegOpSize {
		word := binary.LittleEndian.Uint32(data[offset : offset+4])
		reg.RegOps = append(reg.RegOps, &RegOp{
			Read: word&0x80000000 != 0,
			Reg: &Reg{
				Addr:  uint16(word & 0x7fff),
				Value: binary.LittleEndian.Uint32(data[offset+4 : offset+8]),
			},
		})
	}
	return nil
}

func (reg *RegLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

func DecodeRegLayer(data []byte, p gopacket.PacketBuilder) error {
	req := &RegLayer{}
	err := req.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(req)
	return nil
}

// RegOpsToBytes builds a whole MLink frame carrying the register operations
func RegOpsToBytes(t MLinkType, ops []*RegOp, seq uint16) ([]byte, error) {
	if len(ops) > RegMaxOps {
		return nil, ErrPayload{What: fmt.Sprintf("%d register operations do not fit into one frame", len(ops))}
	}
	src, dst := uint16(MLinkHostAddr), uint16(MLinkDeviceAddr)
	if t == MLinkTypeRegResponse {
		src, dst = dst, src
	}
	ml := NewMLinkLayer(t, seq, src, dst, len(ops)*RegOpSize/4)

	reg := &RegLayer{RegOps: ops}
	regBytes := make([]byte, len(ops)*RegOpSize)
	reg.Serialize(regBytes)
	ml.SetCrc(regBytes)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{}
	if err := gopacket.SerializeLayers(buf, opts, ml, reg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
