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
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-icsource/pkg/command"
	"jinr.ru/greenlab/go-icsource/pkg/config"
)

var actions = []string{"connect", "disconnect", "start", "stop"}

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:       fmt.Sprintf("acquisition %s", strings.Join(actions, "|")),
		Short:     "Control acquisition on the server",
		Args:      cobra.ExactArgs(1),
		ValidArgs: actions,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isAction(args[0]) {
				return fmt.Errorf("Wrong acquisition command. Must be one of %s", strings.Join(actions, "/"))
			}
			status, err := command.NewApiClient(cfg).Acquisition(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", status.State, status.Message)
			return nil
		},
	}
	cmd.AddCommand(NewStatusCommand(cfg))
	cmd.AddCommand(NewStatsCommand(cfg))
	return cmd
}

func isAction(s string) bool {
	for _, a := range actions {
		if a == s {
			return true
		}
	}
	return false
}

func NewStatusCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show acquisition state, counters and framer statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := command.NewApiClient(cfg).Status()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(status)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	return cmd
}

func NewStatsCommand(cfg *config.Config) *cobra.Command {
	var samples int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per channel statistics of the latest samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := command.NewApiClient(cfg).Stats(samples)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-4s %12s %12s %12s %12s\n", "ch", "mean", "std", "min", "max")
			for _, s := range stats {
				fmt.Fprintf(out, "%-4d %12.3f %12.3f %12.3f %12.3f\n", s.Channel+1, s.Mean, s.StdDev, s.Min, s.Max)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&samples, "samples", 0, "Number of latest samples, all buffered samples if 0")
	return cmd
}
