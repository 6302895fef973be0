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

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// MemLayerNum identifies the layer
	MemLayerNum = 1996
	// MemMaxSize is the max number of words in one block operation
	MemMaxSize = 0x1ff
)

// MemOp reads or writes Size consecutive words starting at byte offset Addr.
// Read requests carry no data, read responses and writes carry Size words.
type MemOp struct {
	Read bool
	Addr uint32 // 22 bits
	Size uint32 // 9 bits
	Data []uint32
}

type MemLayer struct {
	layers.BaseLayer
	*MemOp
}

var MemLayerType = gopacket.RegisterLayerType(MemLayerNum,
	gopacket.LayerTypeMetadata{Name: "MemLayerType", Decoder: gopacket.DecodeFunc(DecodeMemLayer)})

// LayerType returns the type of the Mem layer in the layer catalog
func (mem *MemLayer) LayerType() gopacket.LayerType {
	return MemLayerType
}

// Len returns the serialized size in bytes: header word and data words
func (mem *MemLayer) Len() int {
	return (1 + len(mem.Data)) * 4
}

// Serialize serializes the block operation to a buffer of Len() bytes
func (mem *MemLayer) Serialize(buf []byte) {
	hdr := ((mem.Size & 0x1ff) << 22) | (mem.Addr & 0x3fffff)
	if mem.Read {
		hdr |= 0x80000000
	}
	binary.LittleEndian.PutUint32(buf[0:4], hdr)
	for i, word := range mem.Data {
		offset := (i + 1) * 4
		binary.LittleEndian.PutUint32(buf[offset:offset+4], word)
	}
}

// SerializeTo serializes the block operation into bytes and writes the bytes to the SerializeBuffer
func (mem *MemLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(mem.Len())
	if err != nil {
		return err
	}
	mem.Serialize(bytes)
	return nil
}

func (mem *MemLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < 4 || len(data)%4 != 0 {
		df.SetTruncated()
		return ErrPayload{What: fmt.Sprintf("block operation of %d bytes", len(data))}
	}
	mem.BaseLayer = layers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}
	hdr := binary.LittleEndian.Uint32(data[0:4])
	mem.MemOp = &MemOp{
		Read: hdr&0x80000000 != 0,
		Addr: hdr & 0x3fffff,
		Size: (hdr >> 22) & 0x1ff,
	}
	words := len(data)/4 - 1
	if words > 0 && uint32(words) != mem.Size {
		return ErrPayload{What: fmt.Sprintf("block of %d words carries %d words", mem.Size, words)}
	}
	for i := 0; i < words; i++ {
		offset := (i + 1) * 4
		mem.Data = append(mem.Data, binary.LittleEndian.Uint32(data[offset:offset+4]))
	}
	return nil
}

func (mem *MemLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

func DecodeMemLayer(data []byte, p gopacket.PacketBuilder) error {
	req := &MemLayer{}
	err := req.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(req)
	return nil
}

// MemOpToBytes builds a whole MLink frame carrying the block operation
func MemOpToBytes(t MLinkType, op *MemOp, seq uint16) ([]byte, error) {
	if op.Size > MemMaxSize {
		return nil, ErrPayload{What: fmt.Sprintf("block of %d words is too long", op.Size)}
	}
	src, dst := uint16(MLinkHostAddr), uint16(MLinkDeviceAddr)
	if t == MLinkTypeMemResponse {
		src, dst = dst, src
	}
	mem := &MemLayer{MemOp: op}
	ml := NewMLinkLayer(t, seq, src, dst, mem.Len()/4)

	memBytes := make([]byte, mem.Len())
	mem.Serialize(memBytes)
	ml.SetCrc(memBytes)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{}
	if err := gopacket.SerializeLayers(buf, opts, ml, mem); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
