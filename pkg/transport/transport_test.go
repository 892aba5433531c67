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

package transport

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/framer"
)

func TestPortOptionsNormalizeDefaults(t *testing.T) {
	got, err := PortOptions{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "N"}, got)
}

func TestPortOptionsNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
	}{
		{"non standard baud", PortOptions{BaudRate: 12345}},
		{"data bits", PortOptions{DataBits: 9}},
		{"stop bits", PortOptions{StopBits: 3}},
		{"parity", PortOptions{Parity: "mark"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.Normalize()
			assert.Error(t, err)
		})
	}
}

func TestPortOptionsSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "even"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{BaudRate: 9600, DataBits: 7, StopBits: serial.TwoStopBits, Parity: serial.EvenParity}, mode)

	mode, err = PortOptions{}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, serial.OneStopBit, mode.StopBits)
	assert.Equal(t, serial.NoParity, mode.Parity)
}

type fakePort struct {
	serial.Port
	data    *bytes.Buffer
	readErr error
	timeout time.Duration
	closed  bool
	resets  int
}

func (f *fakePort) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if f.data.Len() == 0 {
		return 0, nil
	}
	return f.data.Read(p)
}

func (f *fakePort) SetReadTimeout(t time.Duration) error {
	f.timeout = t
	return nil
}

func (f *fakePort) ResetInputBuffer() error {
	f.resets++
	f.data.Reset()
	return nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func newFakeSerial(t *testing.T) (*SerialSource, *fakePort) {
	port := &fakePort{data: bytes.NewBuffer(nil)}
	s := NewSerialSource(PortOptions{})
	s.openPort = func(name string, mode *serial.Mode) (serial.Port, error) {
		assert.Equal(t, "/dev/ttyFAKE", name)
		assert.Equal(t, 230400, mode.BaudRate)
		return port, nil
	}
	return s, port
}

func TestSerialSource(t *testing.T) {
	s, port := newFakeSerial(t)

	_, err := s.Read(make([]byte, 4))
	assert.IsType(t, ErrNotOpen{}, err)
	assert.IsType(t, ErrNoTarget{}, s.Open("", 230400))

	require.NoError(t, s.Open("/dev/ttyFAKE", 230400))
	assert.True(t, s.IsOpen())
	assert.Equal(t, DefaultReadTimeout, port.timeout)

	port.data.Write([]byte{1, 2, 3, 4, 5})
	assert.Equal(t, 5, s.Available())
	buf := make([]byte, 3)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, buf[:n])
	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, buf[:n])

	n, err = s.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	port.data.Write([]byte{9, 9})
	require.NoError(t, s.Flush())
	assert.Equal(t, 1, port.resets)
	assert.Equal(t, 0, s.Available())

	port.readErr = errors.New("device gone")
	_, err = s.Read(buf)
	assert.Error(t, err)

	require.NoError(t, s.Close())
	assert.True(t, port.closed)
	assert.False(t, s.IsOpen())
	require.NoError(t, s.Close())
}

func TestSerialSourceRejectsBaud(t *testing.T) {
	s, _ := newFakeSerial(t)
	assert.Error(t, s.Open("/dev/ttyFAKE", 1234))
	assert.False(t, s.IsOpen())
}

func TestSerialSourceOpenFailure(t *testing.T) {
	s := NewSerialSource(PortOptions{})
	s.openPort = func(string, *serial.Mode) (serial.Port, error) {
		return nil, errors.New("no such file")
	}
	err := s.Open("/dev/ttyNONE", 115200)
	var openErr ErrOpen
	require.True(t, errors.As(err, &openErr))
	assert.Equal(t, "/dev/ttyNONE", openErr.Target)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func newEmulator(t *testing.T, format config.ProtocolConfig, rate float64) (*EmulatorSource, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	e := NewEmulatorSource(format, rate, 1)
	e.now = clock.now
	require.NoError(t, e.Open(EmulatorTarget, 921600))
	return e, clock
}

func TestEmulatorProducesPackets(t *testing.T) {
	format := *config.NewDefaultProtocolConfig()
	e, clock := newEmulator(t, format, 1000)
	e.GarbageRate = 0
	e.CorruptRate = 0

	assert.Equal(t, 0, e.Available())
	clock.t = clock.t.Add(100 * time.Millisecond)
	assert.Equal(t, 100*format.PacketSize(), e.Available())

	buf := make([]byte, 64*1024)
	n, err := e.Read(buf)
	require.NoError(t, err)

	a := framer.NewAssembler(format)
	packets := a.Parse(buf[:n])
	assert.Len(t, packets, 100)
	assert.Equal(t, uint64(0), a.Stats().ChecksumErrors)
	for _, p := range packets {
		for _, v := range p.Samples {
			assert.InDelta(t, 0, v, 80)
		}
	}
}

func TestEmulatorNoiseIsRecoverable(t *testing.T) {
	format := *config.NewDefaultProtocolConfig()
	e, clock := newEmulator(t, format, 1000)
	e.GarbageRate = 0.2
	e.CorruptRate = 0.2

	clock.t = clock.t.Add(500 * time.Millisecond)
	buf := make([]byte, 64*1024)
	n, err := e.Read(buf)
	require.NoError(t, err)

	packets := framer.NewAssembler(format).Parse(buf[:n])
	assert.Greater(t, len(packets), 300)
	assert.LessOrEqual(t, len(packets), 500)
}

func TestEmulatorBacklogAndFlush(t *testing.T) {
	format := *config.NewDefaultProtocolConfig()
	e, clock := newEmulator(t, format, 100)
	e.GarbageRate = 0
	e.CorruptRate = 0

	clock.t = clock.t.Add(10 * time.Second)
	assert.Equal(t, 100*format.PacketSize(), e.Available())
	require.NoError(t, e.Flush())
	assert.Equal(t, 0, e.Available())

	require.NoError(t, e.Close())
	_, err := e.Read(make([]byte, 10))
	assert.IsType(t, ErrNotOpen{}, err)
}

func TestEmulatorRejectsInvalidFormat(t *testing.T) {
	format := *config.NewDefaultProtocolConfig()
	format.BytesPerSample = 7
	e := NewEmulatorSource(format, 256, 1)
	assert.Error(t, e.Open(EmulatorTarget, 115200))
	assert.False(t, e.IsOpen())
}

func TestTestableSource(t *testing.T) {
	src := NewTestableSource()
	_, err := src.Read(make([]byte, 1))
	assert.IsType(t, ErrNotOpen{}, err)

	require.NoError(t, src.Open("/dev/ttyTEST0", 115200))
	src.Push([]byte{1, 2, 3})
	src.MaxRead = 2
	buf := make([]byte, 8)
	n, _ := src.Read(buf)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, src.Available())

	src.SetReadError(errors.New("boom"))
	_, err = src.Read(buf)
	assert.Error(t, err)
	n, err = src.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = src.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNewSource(t *testing.T) {
	format := *config.NewDefaultProtocolConfig()
	opts := PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E"}

	emu := NewSource(EmulatorTarget, opts, format, 256, 1)
	require.IsType(t, &EmulatorSource{}, emu)
	require.NoError(t, emu.Open(EmulatorTarget, 115200))
	defer emu.Close()
	targets, err := emu.ListTargets()
	require.NoError(t, err)
	assert.Equal(t, []string{EmulatorTarget}, targets)

	serial := NewSource("/dev/ttyUSB0", opts, format, 256, 1)
	require.IsType(t, &SerialSource{}, serial)
	assert.Equal(t, opts, serial.(*SerialSource).options)
}
