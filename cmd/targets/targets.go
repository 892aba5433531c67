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

package targets

import (
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-icsource/pkg/command"
	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/transport"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Transport targets",
	}
	cmd.AddCommand(NewListCommand(cfg))
	return cmd
}

func NewListCommand(cfg *config.Config) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List targets discovered by the server, or on this host with --local",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if local {
				targets, err := transport.DescribeTargets()
				if err != nil {
					return err
				}
				for _, t := range targets {
					fmt.Fprintln(out, t.Name)
				}
				return nil
			}
			targets, err := command.NewApiClient(cfg).Targets()
			if err != nil {
				return err
			}
			for _, t := range targets {
				if t.Online() {
					fmt.Fprintln(out, t.String())
				} else {
					fmt.Fprintf(out, "%s !!! Target is offline\n", t.String())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Enumerate ports on this host without the server")
	return cmd
}
