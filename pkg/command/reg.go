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

package command

import (
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/pkg/errors"

	"github.com/rpsim/go-dummy/pkg/config"
	"github.com/rpsim/go-dummy/pkg/layers"
	"github.com/rpsim/go-dummy/pkg/log"
)

const (
	DefaultRegTimeout = time.Second
	DefaultRegRetries = 3
)

// RegClient talks to the register server over UDP. Every request waits for
// the response with the same sequence number.
type RegClient struct {
	*net.UDPAddr
	Timeout time.Duration
	Retries int
	seq     uint16
}

func NewRegClient(cfg *config.Config) (*RegClient, error) {
	uaddr, err := net.ResolveUDPAddr("udp", cfg.RegURL())
	if err != nil {
		return nil, err
	}
	return &RegClient{
		UDPAddr: uaddr,
		Timeout: DefaultRegTimeout,
		Retries: DefaultRegRetries,
	}, nil
}

// request sends the frame built by build and returns the decoded response
func (c *RegClient) request(expected layers.MLinkType, build func(seq uint16) ([]byte, error)) (gopacket.Packet, error) {
	conn, err := net.DialUDP("udp", nil, c.UDPAddr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	c.seq++
	seq := c.seq
	data, err := build(seq)
	if err != nil {
		return nil, err
	}

	buffer := make([]byte, layers.MLinkMaxFrameSize)
	for attempt := 0; attempt < c.Retries; attempt++ {
		log.Debug("Sending request to %s: seq %d attempt %d", c.UDPAddr, seq, attempt)
		if _, err = conn.Write(data); err != nil {
			continue
		}
		if err = conn.SetReadDeadline(time.Now().Add(c.Timeout)); err != nil {
			return nil, err
		}
		for {
			var length int
			length, err = conn.Read(buffer)
			if err != nil {
				break
			}
			packet, ml, decodeErr := layers.Decode(buffer[:length])
			if decodeErr != nil {
				log.Debug("Skip broken response: %s", decodeErr)
				continue
			}
			if ml.Seq != seq || ml.Type != expected {
				log.Debug("Skip unexpected response: type %s seq %d", ml.Type, ml.Seq)
				continue
			}
			return packet, nil
		}
	}
	return nil, errors.Errorf("No response from %s: %v", c.UDPAddr, err)
}

// RegOps executes register operations and returns them with read values filled in
func (c *RegClient) RegOps(ops []*layers.RegOp) ([]*layers.RegOp, error) {
	packet, err := c.request(layers.MLinkTypeRegResponse, func(seq uint16) ([]byte, error) {
		return layers.RegOpsToBytes(layers.MLinkTypeRegRequest, ops, seq)
	})
	if err != nil {
		return nil, err
	}
	reg, ok := packet.Layer(layers.RegLayerType).(*layers.RegLayer)
	if !ok || len(reg.RegOps) != len(ops) {
		return nil, layers.ErrPayload{What: "register response does not match the request"}
	}
	return reg.RegOps, nil
}

// RegRead reads the register at byte offset addr
func (c *RegClient) RegRead(addr uint16) (uint32, error) {
	ops, err := c.RegOps([]*layers.RegOp{{Read: true, Reg: &layers.Reg{Addr: addr}}})
	if err != nil {
		return 0, err
	}
	return ops[0].Value, nil
}

// RegWrite writes the register at byte offset addr
func (c *RegClient) RegWrite(addr uint16, value uint32) error {
	_, err := c.RegOps([]*layers.RegOp{{Reg: &layers.Reg{Addr: addr, Value: value}}})
	return err
}

// MemRead reads size consecutive registers starting at byte offset addr
func (c *RegClient) MemRead(addr, size uint32) ([]uint32, error) {
	op := &layers.MemOp{Read: true, Addr: addr, Size: size}
	packet, err := c.request(layers.MLinkTypeMemResponse, func(seq uint16) ([]byte, error) {
		return layers.MemOpToBytes(layers.MLinkTypeMemRequest, op, seq)
	})
	if err != nil {
		return nil, err
	}
	mem, ok := packet.Layer(layers.MemLayerType).(*layers.MemLayer)
	if !ok || uint32(len(mem.Data)) != size {
		return nil, layers.ErrPayload{What: "block response does not match the request"}
	}
	return mem.Data, nil
}
