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
package control

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpsim/go-dummy/pkg/command"
	"github.com/rpsim/go-dummy/pkg/config"
)

const (
	AddressOptionName   = "address"
	SimulatedOptionName = "simulated"
	ApplyOptionName     = "apply"
)

func NewStartCommand() *cobra.Command {
	var address string
	var simulated, apply bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start control server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				cfg.Api.Address = address
				cfg.Reg.Address = address
			}
			if simulated {
				cfg.Mem.Simulated = true
			}
			if apply {
				cfg.ApplyOnStart = true
			}
			return command.StartControlServer(cfg)
		},
	}
	cmd.Flags().StringVar(&address, AddressOptionName, "", fmt.Sprintf("Address to bind. E.g. %s", config.DefaultApiAddress))
	cmd.Flags().BoolVar(&simulated, SimulatedOptionName, false, "Keep registers in memory instead of mapping the device")
	cmd.Flags().BoolVar(&apply, ApplyOptionName, false, "Apply stored parameters after mapping the device")

	return cmd
}
