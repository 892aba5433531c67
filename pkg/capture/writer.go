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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"jinr.ru/greenlab/go-icsource/pkg/acquisition"
	"jinr.ru/greenlab/go-icsource/pkg/log"
)

// Writer stores samples as CSV rows: sample_number,timestamp,ch1..chN.
type Writer struct {
	file     io.Closer
	csv      *csv.Writer
	channels int
	rows     uint64
}

func NewWriter(filename string) (*Writer, error) {
	file, err := os.Create(filename)
	if err != nil {
		log.Error("Error while creating file: %s", filename)
		return nil, err
	}
	w := NewStreamWriter(file)
	w.file = file
	return w, nil
}

// NewStreamWriter writes CSV to an arbitrary stream. Close does not close it.
func NewStreamWriter(out io.Writer) *Writer {
	return &Writer{
		csv: csv.NewWriter(out),
	}
}

func (w *Writer) header(channels int) error {
	row := make([]string, 0, channels+2)
	row = append(row, "sample_number", "timestamp")
	for ch := 1; ch <= channels; ch++ {
		row = append(row, fmt.Sprintf("ch%d", ch))
	}
	w.channels = channels
	return w.csv.Write(row)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteRow writes one sample. A header is emitted before the first row and
// whenever the channel count changes.
func (w *Writer) WriteRow(sampleNumber int64, timestamp float64, samples []float64) error {
	if w.channels != len(samples) {
		if err := w.header(len(samples)); err != nil {
			return err
		}
	}
	row := make([]string, 0, len(samples)+2)
	row = append(row, strconv.FormatInt(sampleNumber, 10), formatFloat(timestamp))
	for _, v := range samples {
		row = append(row, formatFloat(v))
	}
	w.rows++
	return w.csv.Write(row)
}

func (w *Writer) WriteBatch(b *acquisition.Batch) error {
	samples := make([]float64, b.NumChannels)
	for s := 0; s < b.NumSamples; s++ {
		for ch := range samples {
			samples[ch] = b.Sample(ch, s)
		}
		if err := w.WriteRow(b.SampleNumbers[s], b.Timestamps[s], samples); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) Rows() uint64 {
	return w.rows
}

func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

func (w *Writer) Close() error {
	err := w.Flush()
	if f, ok := w.file.(*os.File); ok {
		f.Sync()
	}
	if w.file != nil {
		if closeErr := w.file.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}
