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

package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-icsource/pkg/command"
	"jinr.ru/greenlab/go-icsource/pkg/config"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record samples to CSV files on the server host",
	}
	cmd.AddCommand(NewPersistCommand(cfg))
	cmd.AddCommand(NewFlushCommand(cfg))
	cmd.AddCommand(NewSessionsCommand(cfg))
	return cmd
}

func NewPersistCommand(cfg *config.Config) *cobra.Command {
	var filePrefix string
	var dir string
	cmd := &cobra.Command{
		Use:   "persist",
		Short: "Start writing samples to a new file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename, err := command.NewApiClient(cfg).Persist(dir, filePrefix)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), filename)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory path where to persist data")
	cmd.Flags().StringVar(&filePrefix, "file-prefix", "", "File name prefix")
	return cmd
}

func NewFlushCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Close the current file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.NewApiClient(cfg).Flush()
		},
	}
	return cmd
}

func NewSessionsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List streaming sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := command.NewApiClient(cfg).Sessions()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range sessions {
				stopped := "running"
				if !s.StoppedAt.IsZero() {
					stopped = s.StoppedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(out, "%s %s %s %s..%s %d samples %s\n", s.ID, s.Mode, s.Target,
					s.StartedAt.Format("2006-01-02 15:04:05"), stopped, s.TotalSamples, s.File)
			}
			return nil
		},
	}
	return cmd
}
