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
	"testing"
	"time"

	"github.com/rpsim/go-dummy/pkg/config"
	"github.com/rpsim/go-dummy/pkg/device"
	"github.com/rpsim/go-dummy/pkg/layers"
)

func decodeFrame(t *testing.T, data []byte) (*layers.MLinkLayer, interface{}) {
	t.Helper()
	packet, ml, err := layers.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if reg, ok := packet.Layer(layers.RegLayerType).(*layers.RegLayer); ok {
		return ml, reg
	}
	if mem, ok := packet.Layer(layers.MemLayerType).(*layers.MemLayer); ok {
		return ml, mem
	}
	return ml, nil
}

func waitReady(t *testing.T, s *RegServer) {
	t.Helper()
	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("register server is not listening")
	}
}

func TestHandleRegRequest(t *testing.T) {
	s := newTestServer(t)
	regServer := s.reg.(*RegServer)
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}

	ops := []*layers.RegOp{
		{Read: false, Reg: &layers.Reg{Addr: device.RegPeakPos.Def().Offset, Value: 0xfffffffd}},
		{Read: true, Reg: &layers.Reg{Addr: device.RegSgAmp.Def().Offset}},
	}
	request, err := layers.RegOpsToBytes(layers.MLinkTypeRegRequest, ops, 42)
	if err != nil {
		t.Fatal(err)
	}
	packet, _, err := layers.Decode(request)
	if err != nil {
		t.Fatal(err)
	}
	response, err := regServer.HandlePacket(packet)
	if err != nil {
		t.Fatal(err)
	}

	ml, payload := decodeFrame(t, response)
	if ml.Type != layers.MLinkTypeRegResponse || ml.Seq != 42 {
		t.Errorf("response header %+v", ml.MLinkHeader)
	}
	if ml.Src != layers.MLinkDeviceAddr || ml.Dst != layers.MLinkHostAddr {
		t.Errorf("response addresses %x -> %x", ml.Src, ml.Dst)
	}
	reg, ok := payload.(*layers.RegLayer)
	if !ok || len(reg.RegOps) != 2 {
		t.Fatalf("response payload %v", payload)
	}
	if reg.RegOps[1].Value != 4192 {
		t.Errorf("sg_amp read 0x%x", reg.RegOps[1].Value)
	}
	if v := regValue(t, s, "peak_pos"); v != 0xfffffffd {
		t.Errorf("peak_pos 0x%x", v)
	}
}

func TestHandleMemRequest(t *testing.T) {
	s := newTestServer(t)
	regServer := s.reg.(*RegServer)
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	op := &layers.MemOp{Read: true, Addr: uint32(device.RegLpfOn.Def().Offset), Size: 2}
	request, err := layers.MemOpToBytes(layers.MLinkTypeMemRequest, op, 3)
	if err != nil {
		t.Fatal(err)
	}
	packet, _, err := layers.Decode(request)
	if err != nil {
		t.Fatal(err)
	}
	response, err := regServer.HandlePacket(packet)
	if err != nil {
		t.Fatal(err)
	}
	ml, payload := decodeFrame(t, response)
	if ml.Type != layers.MLinkTypeMemResponse || ml.Seq != 3 {
		t.Errorf("response header %+v", ml.MLinkHeader)
	}
	mem, ok := payload.(*layers.MemLayer)
	if !ok {
		t.Fatalf("response payload %v", payload)
	}
	if len(mem.Data) != 2 || mem.Data[0] != 1 || mem.Data[1] != 6 {
		t.Errorf("block %v, want [1 6]", mem.Data)
	}
}

func TestHandleBadRequest(t *testing.T) {
	s := newTestServer(t)
	regServer := s.reg.(*RegServer)

	// a response frame is not a request
	data, err := layers.RegOpsToBytes(layers.MLinkTypeRegResponse, []*layers.RegOp{{Reg: &layers.Reg{}}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	packet, _, err := layers.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := regServer.HandlePacket(packet); err == nil {
		t.Error("response frame must be refused")
	}

	data, err = layers.RegOpsToBytes(layers.MLinkTypeRegRequest,
		[]*layers.RegOp{{Reg: &layers.Reg{Addr: device.RegOscA.Def().Offset, Value: 1}}}, 2)
	if err != nil {
		t.Fatal(err)
	}
	packet, _, err = layers.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := regServer.HandlePacket(packet); err == nil {
		t.Error("write to a read only register must fail")
	}
}

func TestRegServerUDP(t *testing.T) {
	s := newTestServer(t)
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}

	l, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	port := l.LocalAddr().(*net.UDPAddr).Port
	l.Close()

	cfg := config.NewDefaultConfig()
	cfg.Reg.Address = "127.0.0.1"
	cfg.Reg.Port = port
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	regServer, err := NewRegServer(ctx, cfg, s)
	if err != nil {
		t.Fatal(err)
	}
	go regServer.Run()
	waitReady(t, regServer)

	conn, err := net.DialUDP("udp", nil, regServer.UDPAddr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ops := []*layers.RegOp{{Read: true, Reg: &layers.Reg{Addr: device.RegDriftTime.Def().Offset}}}
	request, err := layers.RegOpsToBytes(layers.MLinkTypeRegRequest, ops, 9)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Write(request); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, layers.MLinkMaxFrameSize)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	ml, payload := decodeFrame(t, buf[:n])
	if ml.Seq != 9 {
		t.Errorf("seq %d", ml.Seq)
	}
	reg, ok := payload.(*layers.RegLayer)
	if !ok || reg.RegOps[0].Value != 13 {
		t.Errorf("drift_time response %v", payload)
	}
}
