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
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cmdconfig "jinr.ru/greenlab/go-icsource/cmd/config"
	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/layers"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	protocol := &cmdconfig.ProtocolFlags{}
	cmd := &cobra.Command{
		Use:     "packet <hex>",
		Short:   "Decode a single aligned packet",
		Example: "go-icsource packet --channels 2 'a0 5a 00 0a 00 14 e4'",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := protocol.Protocol()
			if err != nil {
				return err
			}
			data, err := hex.DecodeString(strings.Join(strings.Fields(strings.Join(args, "")), ""))
			if err != nil {
				return err
			}
			layer, err := layers.DecodePacket(data, format)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, layer.String())
			for ch, v := range layer.Samples {
				fmt.Fprintf(out, "ch%d: %d -> %g\n", ch+1, layer.Raw[ch], v)
			}
			return nil
		},
	}
	protocol.Bind(cmd.Flags(), cfg.Protocol)
	return cmd
}
