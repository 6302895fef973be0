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
	"hash/crc32"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/rpsim/go-dummy/pkg/log"
)

const (
	MLinkHostAddr   = 1
	MLinkDeviceAddr = 0xfefe
)

func init() {
	initUnknownMLinkTypes()
	initActualMLinkTypes()
}

const (
	// MLinkLayerNum identifies the layer
	MLinkLayerNum = 1999
	// MLinkSync is a magic number that appears in the beginning of each MLink frame
	MLinkSync = 0x2A50
	// MLinkHeaderSize is the size of MLink header in bytes
	MLinkHeaderSize = 12
	// MLinkCrcSize is the size of the CRC word closing every frame
	MLinkCrcSize = 4
	// MLinkMaxFrameSize is the max size of MLink frame including MLink header and CRC
	MLinkMaxFrameSize = 1400
	// MLinkMaxPayloadSize is the max size of Mlink frame payload
	MLinkMaxPayloadSize = MLinkMaxFrameSize - MLinkHeaderSize - MLinkCrcSize
)

type MLinkType uint16

const (
	MLinkTypeRegRequest  MLinkType = 0x0101
	MLinkTypeRegResponse MLinkType = 0x0102
	MLinkTypeMemRequest  MLinkType = 0x0105
	MLinkTypeMemResponse MLinkType = 0x0106
)

type errorDecoderForMLinkType int

func (e *errorDecoderForMLinkType) Decode(data []byte, p gopacket.PacketBuilder) error {
	return e
}

func (e *errorDecoderForMLinkType) Error() string {
	return fmt.Sprintf("Unable to decode MLink type 0x%04x", int(*e))
}

var errorDecodersForMLinkType [65536]errorDecoderForMLinkType
var MLinkMetadata [65536]layers.EnumMetadata

func initUnknownMLinkTypes() {
	for i := 0; i < 65536; i++ {
		errorDecodersForMLinkType[i] = errorDecoderForMLinkType(i)
		MLinkMetadata[i] = layers.EnumMetadata{
			DecodeWith: &errorDecodersForMLinkType[i],
			Name:       "UnknownMLinkType",
		}
	}
}

func initActualMLinkTypes() {
	MLinkMetadata[MLinkTypeRegRequest] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(DecodeRegLayer), Name: "RegRequest", LayerType: RegLayerType}
	MLinkMetadata[MLinkTypeRegResponse] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(DecodeRegLayer), Name: "RegResponse", LayerType: RegLayerType}
	MLinkMetadata[MLinkTypeMemRequest] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(DecodeMemLayer), Name: "MemRequest", LayerType: MemLayerType}
	MLinkMetadata[MLinkTypeMemResponse] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(DecodeMemLayer), Name: "MemResponse", LayerType: MemLayerType}
}

// LayerType returns MLinkMetadata.LayerType
func (t MLinkType) LayerType() gopacket.LayerType {
	return MLinkMetadata[t].LayerType
}

// Decode calls MLinkMetadata.DecodeWith's decoder
func (t MLinkType) Decode(data []byte, p gopacket.PacketBuilder) error {
	return MLinkMetadata[t].DecodeWith.Decode(data, p)
}

// String returns MLinkMetadata.Name
func (t MLinkType) String() string {
	return MLinkMetadata[t].Name
}

// Response returns the type of the frame answering a request of type t
func (t MLinkType) Response() MLinkType {
	switch t {
	case MLinkTypeRegRequest:
		return MLinkTypeRegResponse
	case MLinkTypeMemRequest:
		return MLinkTypeMemResponse
	}
	return t
}

type MLinkHeader struct {
	Type MLinkType
	Sync uint16
	Seq  uint16
	Len  uint16 // length of MLink frame including header, payload and CRC in 4-byte words NOT in bytes
	Src  uint16
	Dst  uint16
}

type MLinkLayer struct {
	layers.BaseLayer
	MLinkHeader
	Crc uint32
}

var MLinkLayerType = gopacket.RegisterLayerType(MLinkLayerNum,
	gopacket.LayerTypeMetadata{Name: "MLinkLayerType", Decoder: gopacket.DecodeFunc(decodeMLinkLayer)})

func (ml *MLinkLayer) LayerType() gopacket.LayerType {
	return MLinkLayerType
}

// NewMLinkLayer returns the header of a frame carrying payloadWords words
func NewMLinkLayer(t MLinkType, seq uint16, src, dst uint16, payloadWords int) *MLinkLayer {
	ml := &MLinkLayer{}
	ml.Type = t
	ml.Sync = MLinkSync
	// 3 words for MLink header + 1 word CRC + N words of payload
	ml.Len = uint16(4 + payloadWords)
	ml.Seq = seq
	ml.Src = src
	ml.Dst = dst
	return ml
}

// SerializeHeader serializes only MLink header (not tail) to a buffer.
// CRC covers the header, so it is calculated from the serialized header
// before the whole frame is put together.
func (ml *MLinkLayer) SerializeHeader(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(ml.Type))
	binary.LittleEndian.PutUint16(buf[2:4], ml.Sync)
	binary.LittleEndian.PutUint16(buf[4:6], ml.Seq)
	binary.LittleEndian.PutUint16(buf[6:8], ml.Len)
	binary.LittleEndian.PutUint16(buf[8:10], ml.Src)
	binary.LittleEndian.PutUint16(buf[10:12], ml.Dst)
}

// SetCrc calculates the frame CRC from the header and the serialized payload
func (ml *MLinkLayer) SetCrc(payload []byte) {
	header := make([]byte, MLinkHeaderSize)
	ml.SerializeHeader(header)
	ml.Crc = crc32.ChecksumIEEE(append(header, payload...))
}

// SerializeTo serializes the layer into bytes and writes the bytes to the SerializeBuffer
func (ml *MLinkLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	headerBytes, err := b.PrependBytes(MLinkHeaderSize)
	if err != nil {
		return err
	}
	ml.SerializeHeader(headerBytes)

	tailBytes, err := b.AppendBytes(MLinkCrcSize)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(tailBytes[0:4], ml.Crc)
	return nil
}

// DecodeFromBytes attempts to decode the byte slice as a MLink frame
func (ml *MLinkLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < MLinkHeaderSize+MLinkCrcSize {
		df.SetTruncated()
		return ErrFrameTooShort{Size: len(data)}
	}

	if sync := binary.LittleEndian.Uint16(data[2:4]); sync != MLinkSync {
		return ErrWrongSync{Sync: sync}
	}

	ml.BaseLayer = layers.BaseLayer{
		Contents: data[0:MLinkHeaderSize],
		// data without MLink header and without CRC in the end of each MLink frame
		Payload: data[MLinkHeaderSize : len(data)-MLinkCrcSize],
	}

	ml.Type = MLinkType(binary.LittleEndian.Uint16(data[0:2]))
	ml.Sync = binary.LittleEndian.Uint16(data[2:4])
	ml.Seq = binary.LittleEndian.Uint16(data[4:6])
	ml.Len = binary.LittleEndian.Uint16(data[6:8])
	ml.Src = binary.LittleEndian.Uint16(data[8:10])
	ml.Dst = binary.LittleEndian.Uint16(data[10:12])
	ml.Crc = binary.LittleEndian.Uint32(data[len(data)-MLinkCrcSize:])

	if int(ml.Len)*4 != len(data) {
		return ErrWrongLen{Len: ml.Len, Size: len(data)}
	}
	if crc := crc32.ChecksumIEEE(data[:len(data)-MLinkCrcSize]); crc != ml.Crc {
		return ErrWrongCrc{Want: crc, Got: ml.Crc}
	}
	// gopacket skips the next decoder when the payload is empty
	if ml.Type.LayerType() == gopacket.LayerTypeZero {
		return &errorDecodersForMLinkType[ml.Type]
	}
	return nil
}

func (ml *MLinkLayer) NextLayerType() gopacket.LayerType {
	return ml.Type.LayerType()
}

func decodeMLinkLayer(data []byte, p gopacket.PacketBuilder) error {
	ml := &MLinkLayer{}
	err := ml.DecodeFromBytes(data, p)
	if err != nil {
		log.Debug("Error while decoding mlink layer: %s", err)
		return err
	}
	p.AddLayer(ml)
	return p.NextDecoder(ml.Type)
}

// Decode parses a whole MLink frame. The returned packet has MLinkLayer
// followed by RegLayer or MemLayer.
func Decode(data []byte) (gopacket.Packet, *MLinkLayer, error) {
	packet := gopacket.NewPacket(data, MLinkLayerType, gopacket.Default)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, nil, errLayer.Error()
	}
	ml, ok := packet.Layer(MLinkLayerType).(*MLinkLayer)
	if !ok {
		return nil, nil, ErrFrameTooShort{Size: len(data)}
	}
	return packet, ml, nil
}
