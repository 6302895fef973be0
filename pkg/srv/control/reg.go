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

package control

import (
	"context"
	"net"
	"time"

	"github.com/google/gopacket"

	"github.com/rpsim/go-dummy/pkg/config"
	"github.com/rpsim/go-dummy/pkg/layers"
	"github.com/rpsim/go-dummy/pkg/log"
	"github.com/rpsim/go-dummy/pkg/srv"
	"github.com/rpsim/go-dummy/pkg/srv/control/ifc"
)

// RegServer answers MLink register and block requests over UDP
type RegServer struct {
	srv.Server
	ctrl  ifc.ControlServer
	ready chan struct{}
}

var _ ifc.RegServer = &RegServer{}

func NewRegServer(ctx context.Context, cfg *config.Config, ctrl ifc.ControlServer) (*RegServer, error) {
	uaddr, err := net.ResolveUDPAddr("udp", cfg.RegListenAddr())
	if err != nil {
		return nil, err
	}
	return &RegServer{
		Server: srv.Server{
			Context: ctx,
			UDPAddr: uaddr,
			ChIn:    make(chan srv.InPacket),
			ChOut:   make(chan srv.OutPacket),
		},
		ctrl:  ctrl,
		ready: make(chan struct{}),
	}, nil
}

// Ready is closed once the server socket is bound
func (s *RegServer) Ready() <-chan struct{} {
	return s.ready
}

func (s *RegServer) Run() error {
	log.Info("Starting register server: %s", s.UDPAddr)
	conn, err := net.ListenUDP("udp", s.UDPAddr)
	if err != nil {
		return err
	}
	defer conn.Close()
	close(s.ready)

	errChan := make(chan error, 2)

	// Read UDP packets from wire and put them to input queue
	go func() {
		for {
			buffer := make([]byte, layers.MLinkMaxFrameSize)
			length, udpAddr, readErr := conn.ReadFromUDP(buffer)
			if readErr != nil {
				errChan <- readErr
				return
			}
			captureInfo := gopacket.CaptureInfo{
				Length:        length,
				CaptureLength: length,
				Timestamp:     time.Now(),
				AncillaryData: []interface{}{udpAddr},
			}
			select {
			case s.ChIn <- srv.InPacket{Data: buffer[:length], CaptureInfo: captureInfo}:
			case <-s.Context.Done():
				return
			}
		}
	}()

	// Read captured packets from input queue, execute them and queue the responses
	go func() {
		source := gopacket.NewPacketSource(s, layers.MLinkLayerType)
		for packet := range source.Packets() {
			udpAddr, packetErr := srv.GetAddrPort(packet)
			if packetErr != nil {
				log.Error("%s", packetErr)
				continue
			}
			response, packetErr := s.HandlePacket(packet)
			if packetErr != nil {
				log.Debug("Drop packet from %s: %s", udpAddr, packetErr)
				continue
			}
			select {
			case s.ChOut <- srv.OutPacket{Data: response, UDPAddr: udpAddr}:
			case <-s.Context.Done():
				return
			}
		}
	}()

	// Read packets from output queue and send them to wire
	go func() {
		for {
			select {
			case outPacket := <-s.ChOut:
				if _, sendErr := conn.WriteToUDP(outPacket.Data, outPacket.UDPAddr); sendErr != nil {
					log.Error("Error while sending data to %s", outPacket.UDPAddr)
					errChan <- sendErr
					return
				}
			case <-s.Context.Done():
				return
			}
		}
	}()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err = <-errChan:
		return err
	}
}

// HandlePacket executes the request carried by the packet and returns the response frame
func (s *RegServer) HandlePacket(packet gopacket.Packet) ([]byte, error) {
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, errLayer.Error()
	}
	ml, ok := packet.Layer(layers.MLinkLayerType).(*layers.MLinkLayer)
	if !ok {
		return nil, srv.ErrUnknownOperation{What: "not an MLink frame"}
	}

	switch ml.Type {
	case layers.MLinkTypeRegRequest:
		reg, ok := packet.Layer(layers.RegLayerType).(*layers.RegLayer)
		if !ok {
			return nil, srv.ErrUnknownOperation{What: "register request without operations"}
		}
		log.Debug("Handling register request: seq %d, %d ops", ml.Seq, len(reg.RegOps))
		if err := s.ctrl.RegOps(reg.RegOps); err != nil {
			return nil, err
		}
		return layers.RegOpsToBytes(ml.Type.Response(), reg.RegOps, ml.Seq)
	case layers.MLinkTypeMemRequest:
		mem, ok := packet.Layer(layers.MemLayerType).(*layers.MemLayer)
		if !ok {
			return nil, srv.ErrUnknownOperation{What: "block request without header"}
		}
		log.Debug("Handling block request: seq %d, addr 0x%03x, %d words", ml.Seq, mem.Addr, mem.Size)
		if err := s.ctrl.MemOp(mem.MemOp); err != nil {
			return nil, err
		}
		return layers.MemOpToBytes(ml.Type.Response(), mem.MemOp, ml.Seq)
	}
	return nil, srv.ErrUnknownOperation{What: ml.Type.String()}
}
