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

package server

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-icsource/pkg/command"
	"jinr.ru/greenlab/go-icsource/pkg/config"
)

const (
	IPOptionName   = "ip"
	PortOptionName = "port"
	DBOptionName   = "db"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Control server",
	}
	cmd.AddCommand(NewStartCommand(cfg))
	return cmd
}

func NewStartCommand(cfg *config.Config) *cobra.Command {
	var ip, dbPath string
	var port int
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start control server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ip != "" {
				if net.ParseIP(ip) == nil {
					return fmt.Errorf("invalid IP address: %s", ip)
				}
				cfg.API.IP = ip
			}
			if port != 0 {
				cfg.API.Port = port
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			return command.StartControlServer(cfg)
		},
	}
	cmd.Flags().StringVar(&ip, IPOptionName, "", fmt.Sprintf("IP to bind. E.g. %s", config.DefaultAPIAddress))
	cmd.Flags().IntVar(&port, PortOptionName, 0, fmt.Sprintf("API port. E.g. %d", config.DefaultAPIPort))
	cmd.Flags().StringVar(&dbPath, DBOptionName, "", "State database path")

	return cmd
}
