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

package packet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/layers"
)

func run(args ...string) (string, error) {
	cmd := NewCommand(config.NewDefaultConfig())
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPacketCommand(t *testing.T) {
	out, err := run("--channels", "2", "--scale", "1", "a0 5a 00 0a 00 14 e4")
	require.NoError(t, err)
	assert.Contains(t, out, "ch1: 10 -> 10\n")
	assert.Contains(t, out, "ch2: 20 -> 20\n")
}

func TestPacketCommandErrors(t *testing.T) {
	_, err := run("--channels", "2", "a0 5a 00 0a 00 14 1e")
	assert.IsType(t, layers.ErrChecksumMismatch{}, err)

	_, err = run("--channels", "2", "a0 5a 00")
	assert.IsType(t, layers.ErrTruncated{}, err)

	_, err = run("--channels", "2", "zz")
	assert.Error(t, err)

	_, err = run("--channels", "0", "a0 5a")
	assert.IsType(t, config.ErrInvalidConfig{}, err)
}
