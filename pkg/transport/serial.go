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
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/log"
)

// DefaultReadTimeout bounds how long a single Read waits for the device.
const DefaultReadTimeout = 5 * time.Millisecond

type openFunc func(name string, mode *serial.Mode) (serial.Port, error)

// SerialSource reads from a serial port via go.bug.st/serial.
type SerialSource struct {
	mu       sync.Mutex
	options  PortOptions
	target   string
	port     serial.Port
	pending  []byte
	openPort openFunc
}

func NewSerialSource(options PortOptions) *SerialSource {
	return &SerialSource{
		options:  options,
		openPort: serial.Open,
	}
}

// Open opens target at speed baud. Any previously open port is closed first.
func (s *SerialSource) Open(target string, speed int) error {
	if target == "" {
		return ErrNoTarget{}
	}
	opts := s.options
	opts.BaudRate = speed
	mode, err := opts.SerialMode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()

	port, err := s.openPort(target, mode)
	if err != nil {
		return ErrOpen{Target: target, Err: err}
	}
	if err := port.SetReadTimeout(DefaultReadTimeout); err != nil {
		port.Close()
		return ErrOpen{Target: target, Err: err}
	}
	s.port = port
	s.target = target
	s.pending = nil
	log.Info("Serial port %s opened at %d baud", target, mode.BaudRate)
	return nil
}

func (s *SerialSource) closeLocked() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	log.Info("Serial port %s closed", s.target)
	s.port = nil
	s.pending = nil
	return err
}

func (s *SerialSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *SerialSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port != nil
}

// Read returns bytes already fetched by Available first, then polls the port.
func (s *SerialSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return 0, ErrNotOpen{}
	}
	if len(s.pending) > 0 {
		n := copy(p, s.pending)
		s.pending = s.pending[n:]
		return n, nil
	}
	n, err := s.port.Read(p)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", s.target, err)
	}
	return n, nil
}

// Available polls the port once and reports how many bytes a Read can return
// without waiting. The driver has no queue size query.
func (s *SerialSource) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return 0
	}
	buf := make([]byte, config.DefaultReadSize)
	n, err := s.port.Read(buf)
	if err != nil {
		log.Debug("Available: %s", err)
	}
	s.pending = append(s.pending, buf[:n]...)
	return len(s.pending)
}

// Flush discards everything received but not yet read.
func (s *SerialSource) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return ErrNotOpen{}
	}
	s.pending = nil
	return s.port.ResetInputBuffer()
}

func (s *SerialSource) ListTargets() ([]string, error) {
	return ListTargets()
}
