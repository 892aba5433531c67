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
	"sync"
)

// TestableSource is a ByteSource with scripted reads and errors.
type TestableSource struct {
	mu sync.Mutex

	// ReadBuffer holds data returned by Read calls
	ReadBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set
	ReadError error

	// OpenError is returned by Open if set
	OpenError error

	// MaxRead limits the bytes returned by one Read, 0 means no limit
	MaxRead int

	Targets []string

	Opened     bool
	Target     string
	Speed      int
	OpenCalls  int
	CloseCalls int
	FlushCalls int
	ReadCalls  int
}

func NewTestableSource() *TestableSource {
	return &TestableSource{
		ReadBuffer: bytes.NewBuffer(nil),
		Targets:    []string{"/dev/ttyTEST0"},
	}
}

// Push queues data for subsequent reads.
func (t *TestableSource) Push(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadBuffer.Write(data)
}

// SetReadError makes the next Read fail with err.
func (t *TestableSource) SetReadError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadError = err
}

func (t *TestableSource) Open(target string, speed int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.OpenCalls++
	if t.OpenError != nil {
		return t.OpenError
	}
	t.Opened = true
	t.Target = target
	t.Speed = speed
	return nil
}

func (t *TestableSource) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.CloseCalls++
	t.Opened = false
	return nil
}

func (t *TestableSource) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Opened
}

func (t *TestableSource) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadCalls++
	if !t.Opened {
		return 0, ErrNotOpen{Target: t.Target}
	}
	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}
	if t.MaxRead > 0 && len(p) > t.MaxRead {
		p = p[:t.MaxRead]
	}
	if t.ReadBuffer.Len() == 0 {
		return 0, nil
	}
	return t.ReadBuffer.Read(p)
}

func (t *TestableSource) Available() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ReadBuffer.Len()
}

func (t *TestableSource) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.FlushCalls++
	t.ReadBuffer.Reset()
	return nil
}

func (t *TestableSource) ListTargets() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.Targets...), nil
}

func (t *TestableSource) Stats() (opens, closes, flushes, reads int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.OpenCalls, t.CloseCalls, t.FlushCalls, t.ReadCalls
}
