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

package decode

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/layers"
)

func TestDecodeCommand(t *testing.T) {
	format := *config.NewDefaultProtocolConfig()
	format.Channels = 2
	format.ScaleFactor = 1

	data := []byte{0xff, 0x00}
	for _, raw := range [][]int32{{10, 20}, {3, -4}} {
		p, err := layers.EncodePacket(format, raw)
		require.NoError(t, err)
		data = append(data, p...)
	}
	filename := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, os.WriteFile(filename, data, 0644))

	cmd := NewCommand(config.NewDefaultConfig())
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--channels", "2", "--scale", "1", "--sample-rate", "1000", "--codec", "none", filename})
	require.NoError(t, cmd.Execute())

	want := "sample_number,timestamp,ch1,ch2\n" +
		"0,0,10,20\n" +
		"1,0.001,3,-4\n"
	assert.Equal(t, want, out.String())
}

func TestDecodeCommandUnknownCodec(t *testing.T) {
	cmd := NewCommand(config.NewDefaultConfig())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	filename := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, os.WriteFile(filename, []byte{0xa0}, 0644))
	cmd.SetArgs([]string{"--codec", "lz4", filename})
	assert.Error(t, cmd.Execute())
}
