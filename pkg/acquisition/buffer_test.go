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

package acquisition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchOf(first int64, channels int, values ...float64) *Batch {
	n := len(values) / channels
	b := NewBatch(channels, n)
	copy(b.Data, values)
	for s := 0; s < n; s++ {
		b.SampleNumbers[s] = first + int64(s)
		b.Timestamps[s] = float64(first+int64(s)) / 10
	}
	return b
}

func TestOutputBufferWrap(t *testing.T) {
	buf := NewOutputBuffer(2, 4)
	// ch0: 1 2 3, ch1: 10 20 30
	require.NoError(t, buf.Append(batchOf(0, 2, 1, 2, 3, 10, 20, 30)))
	require.NoError(t, buf.Append(batchOf(3, 2, 4, 5, 40, 50)))

	snap := buf.Snapshot(0)
	assert.Equal(t, 4, snap.NumSamples)
	assert.Equal(t, []float64{2, 3, 4, 5}, snap.Channel(0))
	assert.Equal(t, []float64{20, 30, 40, 50}, snap.Channel(1))
	assert.Equal(t, []int64{1, 2, 3, 4}, snap.SampleNumbers)
	assert.Equal(t, 50.0, snap.Sample(1, 3))

	last := buf.Snapshot(2)
	assert.Equal(t, []float64{4, 5, 40, 50}, last.Data)
	assert.Equal(t, []float64{0.3, 0.4}, last.Timestamps)

	st := buf.Stats()
	assert.Equal(t, uint64(5), st.Written)
	assert.Equal(t, 4, st.Len)
}

func TestOutputBufferChannelMismatch(t *testing.T) {
	buf := NewOutputBuffer(2, 4)
	err := buf.Append(batchOf(0, 3, 1, 2, 3))
	assert.Equal(t, ErrChannelMismatch{Have: 3, Want: 2}, err)
	assert.Equal(t, 0, buf.Stats().Len)
}

func TestOutputBufferSubscribe(t *testing.T) {
	buf := NewOutputBuffer(1, 8)
	fast := buf.Subscribe(4)
	slow := buf.Subscribe(1)

	for i := 0; i < 3; i++ {
		require.NoError(t, buf.Append(batchOf(int64(i), 1, float64(i))))
	}
	assert.Len(t, fast, 3)
	assert.Len(t, slow, 1)
	assert.Equal(t, uint64(2), buf.Stats().Dropped)

	b := <-fast
	assert.Equal(t, []float64{0}, b.Data)

	buf.Unsubscribe(slow)
	buf.Unsubscribe(slow)
	<-slow
	_, ok := <-slow
	assert.False(t, ok)
	assert.Equal(t, 1, buf.Stats().Subscribers)
}

func TestOutputBufferResizeAndClear(t *testing.T) {
	buf := NewOutputBuffer(1, 8)
	require.NoError(t, buf.Append(batchOf(0, 1, 1, 2)))
	buf.Clear()
	assert.Equal(t, 0, buf.Snapshot(0).NumSamples)

	buf.Resize(3, 2)
	assert.Equal(t, 3, buf.Channels())
	require.NoError(t, buf.Append(batchOf(0, 3, 1, 2, 3)))
	assert.Equal(t, []float64{1, 2, 3}, buf.Snapshot(10).Data)
}

func TestSimulatorPacing(t *testing.T) {
	cases := []struct {
		rate  float64
		first []int
		total int
	}{
		{rate: 10, first: []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, total: 10},
		{rate: 50, first: []int{0, 1, 0, 1}, total: 50},
		{rate: 256, first: []int{2, 3, 2, 3, 2}, total: 256},
		{rate: 100000, first: []int{1000, 1000}, total: 100000},
	}
	for _, c := range cases {
		sim := NewSimulator(1, c.rate, 1)
		got := make([]int, 0, 100)
		total := 0
		for i := 0; i < 100; i++ {
			n := sim.NextCycle()
			got = append(got, n)
			total += n
		}
		assert.Equal(t, c.first, got[:len(c.first)], "rate %v", c.rate)
		assert.Equal(t, c.total, total, "rate %v", c.rate)
	}
}

func TestSimulatorFill(t *testing.T) {
	sim := NewSimulator(3, 500, 9)
	b := NewBatch(3, sim.NextCycle())
	require.Equal(t, 5, b.NumSamples)
	sim.Fill(b)
	for _, v := range b.Data {
		assert.False(t, math.IsNaN(v))
		assert.LessOrEqual(t, math.Abs(v), 80.0)
	}
}

func TestChannelStats(t *testing.T) {
	assert.Nil(t, ChannelStats(NewBatch(2, 0)))

	stats := ChannelStats(batchOf(0, 2, 1, 2, 3, 4, -4, -4, -4, -4))
	require.Len(t, stats, 2)
	assert.InDelta(t, 2.5, stats[0].Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), stats[0].StdDev, 1e-12)
	assert.Equal(t, 1.0, stats[0].Min)
	assert.Equal(t, 4.0, stats[0].Max)
	assert.Equal(t, ChannelStat{Channel: 1, Mean: -4, StdDev: 0, Min: -4, Max: -4}, stats[1])

	single := ChannelStats(batchOf(0, 1, 7))
	assert.Equal(t, 0.0, single[0].StdDev)
}
