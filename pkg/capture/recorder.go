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

package capture

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"jinr.ru/greenlab/go-icsource/pkg/acquisition"
	"jinr.ru/greenlab/go-icsource/pkg/log"
)

const (
	RecorderChSize = 100
)

type switchRequest struct {
	filename string
	result   chan error
}

// Recorder copies every batch published to an output buffer into the
// current file. Without a file the batches are discarded.
type Recorder struct {
	output  *acquisition.OutputBuffer
	stateCh chan switchRequest
	done    chan struct{}

	mu      sync.Mutex
	current string
	rows    uint64
}

func NewRecorder(output *acquisition.OutputBuffer) *Recorder {
	return &Recorder{
		output:  output,
		stateCh: make(chan switchRequest),
		done:    make(chan struct{}),
	}
}

// Run serves Persist and Flush requests until ctx is done. The open file is
// closed on exit.
func (r *Recorder) Run(ctx context.Context) {
	batches := r.output.Subscribe(RecorderChSize)
	defer r.output.Unsubscribe(batches)
	defer close(r.done)

	var w *Writer
	closeWriter := func() {
		if w == nil {
			return
		}
		if err := w.Close(); err != nil {
			log.Error("Error while closing %s: %s", r.Current(), err)
		}
		log.Info("Closed %s after %d rows", r.Current(), w.Rows())
		w = nil
	}
	defer closeWriter()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.stateCh:
			closeWriter()
			var err error
			if req.filename != "" {
				w, err = NewWriter(req.filename)
				if err != nil {
					req.filename = ""
				}
			}
			r.mu.Lock()
			r.current = req.filename
			r.rows = 0
			r.mu.Unlock()
			req.result <- err
		case batch, ok := <-batches:
			if !ok {
				return
			}
			if w == nil {
				continue
			}
			if err := w.WriteBatch(batch); err != nil {
				log.Error("Error while writing to file: %s", err)
				continue
			}
			r.mu.Lock()
			r.rows = w.Rows()
			r.mu.Unlock()
		}
	}
}

func (r *Recorder) request(filename string) error {
	req := switchRequest{filename: filename, result: make(chan error, 1)}
	select {
	case r.stateCh <- req:
	case <-r.done:
		return fmt.Errorf("recorder is not running")
	}
	return <-req.result
}

func PersistFilename(dir, prefix, target, suffix string) string {
	name := strings.NewReplacer(":", "_", "\\", "_").Replace(filepath.Base(target))
	if name == "" || name == "." || name == "/" {
		name = "source"
	}
	filename := fmt.Sprintf("%s_%s.csv", name, suffix)
	if prefix != "" {
		filename = fmt.Sprintf("%s_%s", prefix, filename)
	}
	return path.Join(dir, filename)
}

// Persist starts a new file in dir named after prefix, target and the
// current UTC time. Any previous file is closed first.
func (r *Recorder) Persist(dir, prefix, target string) (string, error) {
	timestamp := time.Now().UTC().Format("20060102_150405")
	filename := PersistFilename(dir, prefix, target, timestamp)
	log.Info("Persist writer: %s", filename)
	if err := r.request(filename); err != nil {
		return "", err
	}
	return filename, nil
}

// Flush closes the current file. Recording stops until the next Persist.
func (r *Recorder) Flush() error {
	log.Info("Flush writer: %s", r.Current())
	return r.request("")
}

func (r *Recorder) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Recorder) Rows() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}
