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
	"strings"

	"github.com/spf13/cobra"

	cmdconfig "jinr.ru/greenlab/go-icsource/cmd/config"
	"jinr.ru/greenlab/go-icsource/pkg/capture"
	"jinr.ru/greenlab/go-icsource/pkg/codec"
	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/log"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	var codecName string
	var rate float64
	protocol := &cmdconfig.ProtocolFlags{}
	cmd := &cobra.Command{
		Use:   "decode <capture-file>",
		Short: "Frame a raw byte capture and print one CSV row per packet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := protocol.Protocol()
			if err != nil {
				return err
			}
			if err := config.ValidateSampleRate(rate); err != nil {
				return err
			}
			result, err := capture.DecodeFile(args[0], codecName, format)
			if err != nil {
				return err
			}
			log.Info("Decoded %d packets from %d bytes (%s): %d checksum errors, %d bytes skipped",
				len(result.Packets), result.Bytes, result.Codec, result.Stats.ChecksumErrors, result.Stats.SkippedBytes)
			return capture.WritePackets(capture.NewStreamWriter(cmd.OutOrStdout()), result.Packets, rate)
		},
	}
	protocol.Bind(cmd.Flags(), cfg.Protocol)
	cmd.Flags().StringVar(&codecName, "codec", capture.AutoCodec, "Capture compression: auto, "+strings.Join(codec.Names(), ", "))
	cmd.Flags().Float64Var(&rate, "sample-rate", cfg.Acquisition.SampleRate, "Sample rate used for timestamps")
	return cmd
}
