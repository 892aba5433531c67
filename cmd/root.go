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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-icsource/cmd/acquisition"
	"jinr.ru/greenlab/go-icsource/cmd/completion"
	"jinr.ru/greenlab/go-icsource/cmd/config"
	"jinr.ru/greenlab/go-icsource/cmd/decode"
	"jinr.ru/greenlab/go-icsource/cmd/packet"
	"jinr.ru/greenlab/go-icsource/cmd/record"
	"jinr.ru/greenlab/go-icsource/cmd/server"
	"jinr.ru/greenlab/go-icsource/cmd/targets"
	pkgconfig "jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel string
	cfg := pkgconfig.NewDefaultConfig()
	loadErr := cfg.Load()
	cmd := &cobra.Command{
		Use:          "go-icsource",
		Short:        "Tool to acquire sample streams from serial biosignal amplifiers",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
			if loadErr != nil {
				log.Warning("Using defaults, config %s not loaded: %s", cfg.Path(), loadErr)
			}
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(server.NewCommand(cfg))
	cmd.AddCommand(acquisition.NewCommand(cfg))
	cmd.AddCommand(config.NewCommand(cfg))
	cmd.AddCommand(targets.NewCommand(cfg))
	cmd.AddCommand(record.NewCommand(cfg))
	cmd.AddCommand(decode.NewCommand(cfg))
	cmd.AddCommand(packet.NewCommand(cfg))
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}
