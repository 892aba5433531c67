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

package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-icsource/pkg/command"
	"jinr.ru/greenlab/go-icsource/pkg/config"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage local config and server settings",
	}
	cmd.AddCommand(NewInitCommand(cfg))
	cmd.AddCommand(NewShowCommand(cfg))
	cmd.AddCommand(NewProtocolCommand(cfg))
	cmd.AddCommand(NewTransportCommand(cfg))
	cmd.AddCommand(NewAcquisitionCommand(cfg))
	return cmd
}

func NewInitCommand(cfg *config.Config) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Persist(overwrite); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", cfg.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing config file")
	return cmd
}

func NewShowCommand(cfg *config.Config) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the local config, or the server settings with --remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !remote {
				fmt.Fprint(cmd.OutOrStdout(), cfg.String())
				return nil
			}
			settings, err := command.NewApiClient(cfg).Settings()
			if err != nil {
				return err
			}
			return printYAML(cmd, settings)
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Show settings in effect on the server")
	return cmd
}

func printYAML(cmd *cobra.Command, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

// changed collects flags set on the command line under their JSON field names
func changed(flags *pflag.FlagSet, names map[string]string, values map[string]func() interface{}) map[string]interface{} {
	body := map[string]interface{}{}
	flags.Visit(func(f *pflag.Flag) {
		if field, ok := names[f.Name]; ok {
			body[field] = values[f.Name]()
		}
	})
	return body
}

func sendSection(cmd *cobra.Command, cfg *config.Config, section string, body map[string]interface{}) error {
	if len(body) == 0 {
		return fmt.Errorf("nothing to change, see --help for %s options", section)
	}
	settings, err := command.NewApiClient(cfg).SetConfig(section, body)
	if err != nil {
		return err
	}
	switch section {
	case "protocol":
		return printYAML(cmd, settings.Protocol)
	case "transport":
		return printYAML(cmd, settings.Transport)
	default:
		return printYAML(cmd, settings.Acquisition)
	}
}

func NewProtocolCommand(cfg *config.Config) *cobra.Command {
	var channels, width int
	var format, sync1, sync2 string
	var scale float64
	var checksum bool
	cmd := &cobra.Command{
		Use:   "protocol",
		Short: "Change the packet layout on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("data-format") {
				w, ok := config.SampleWidths[format]
				if !ok {
					return fmt.Errorf("unknown data format %q: expected int16, int24 or int32", format)
				}
				width = w
				cmd.Flags().Set("bytes-per-sample", fmt.Sprint(w))
			}
			body := changed(cmd.Flags(),
				map[string]string{
					"channels":         "channels",
					"bytes-per-sample": "bytesPerSample",
					"scale":            "scaleFactor",
					"sync1":            "syncByte1",
					"sync2":            "syncByte2",
					"checksum":         "checksum",
				},
				map[string]func() interface{}{
					"channels":         func() interface{} { return channels },
					"bytes-per-sample": func() interface{} { return width },
					"scale":            func() interface{} { return scale },
					"sync1":            func() interface{} { return sync1 },
					"sync2":            func() interface{} { return sync2 },
					"checksum":         func() interface{} { return checksum },
				})
			return sendSection(cmd, cfg, "protocol", body)
		},
	}
	cmd.Flags().IntVar(&channels, "channels", config.DefaultChannels, "Channel count")
	cmd.Flags().IntVar(&width, "bytes-per-sample", config.DefaultBytesPerSample, "Sample width: 2, 3 or 4")
	cmd.Flags().StringVar(&format, "data-format", "", "Sample format: int16, int24 or int32")
	cmd.Flags().Float64Var(&scale, "scale", config.DefaultScaleFactor, "Scale factor applied to raw samples")
	cmd.Flags().StringVar(&sync1, "sync1", fmt.Sprintf("0x%02X", config.DefaultSyncByte1), "First sync byte")
	cmd.Flags().StringVar(&sync2, "sync2", fmt.Sprintf("0x%02X", config.DefaultSyncByte2), "Second sync byte")
	cmd.Flags().BoolVar(&checksum, "checksum", config.DefaultChecksum, "Trailing XOR checksum byte")
	return cmd
}

func NewTransportCommand(cfg *config.Config) *cobra.Command {
	var target, parity string
	var baud, dataBits, stopBits int
	cmd := &cobra.Command{
		Use:   "transport",
		Short: "Change target and line settings on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := changed(cmd.Flags(),
				map[string]string{
					"target":    "target",
					"baud":      "baudRate",
					"data-bits": "dataBits",
					"stop-bits": "stopBits",
					"parity":    "parity",
				},
				map[string]func() interface{}{
					"target":    func() interface{} { return target },
					"baud":      func() interface{} { return baud },
					"data-bits": func() interface{} { return dataBits },
					"stop-bits": func() interface{} { return stopBits },
					"parity":    func() interface{} { return parity },
				})
			return sendSection(cmd, cfg, "transport", body)
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Serial port or emulator. See targets list")
	cmd.Flags().IntVar(&baud, "baud", config.DefaultBaudRate, "Baud rate")
	cmd.Flags().IntVar(&dataBits, "data-bits", 8, "Data bits")
	cmd.Flags().IntVar(&stopBits, "stop-bits", 1, "Stop bits: 1 or 2")
	cmd.Flags().StringVar(&parity, "parity", "N", "Parity: N, E or O")
	return cmd
}

func NewAcquisitionCommand(cfg *config.Config) *cobra.Command {
	var rate float64
	var simulate bool
	var seed int64
	var capacity, readSize, idleWait int
	cmd := &cobra.Command{
		Use:   "acquisition",
		Short: "Change sample rate, mode and buffering on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := changed(cmd.Flags(),
				map[string]string{
					"sample-rate":     "sampleRate",
					"simulate":        "simulate",
					"seed":            "seed",
					"buffer-capacity": "bufferCapacity",
					"read-size":       "readSize",
					"idle-wait-ms":    "idleWaitMs",
				},
				map[string]func() interface{}{
					"sample-rate":     func() interface{} { return rate },
					"simulate":        func() interface{} { return simulate },
					"seed":            func() interface{} { return seed },
					"buffer-capacity": func() interface{} { return capacity },
					"read-size":       func() interface{} { return readSize },
					"idle-wait-ms":    func() interface{} { return idleWait },
				})
			return sendSection(cmd, cfg, "acquisition", body)
		},
	}
	cmd.Flags().Float64Var(&rate, "sample-rate", config.DefaultSampleRate, "Samples per second")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "Use the built-in signal simulator instead of the transport")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSimSeed, "Simulator seed")
	cmd.Flags().IntVar(&capacity, "buffer-capacity", config.DefaultBufferCapacity, "Samples kept per channel")
	cmd.Flags().IntVar(&readSize, "read-size", config.DefaultReadSize, "Bytes read from the transport per cycle")
	cmd.Flags().IntVar(&idleWait, "idle-wait-ms", config.DefaultIdleWaitMs, "Pause between acquisition cycles")
	return cmd
}
