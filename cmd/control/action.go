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
	"github.com/spf13/cobra"

	"github.com/rpsim/go-dummy/pkg/command"
	"github.com/rpsim/go-dummy/pkg/config"
)

func newActionCommand(use, short string, action func(c *command.ApiClient) error) *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return action(command.NewApiClient(cfg))
		},
	}
}

func NewFreezeCommand() *cobra.Command {
	return newActionCommand("freeze", "Freeze sampling of the DUMMY core",
		func(c *command.ApiClient) error { return c.Freeze() })
}

func NewRestoreCommand() *cobra.Command {
	return newActionCommand("restore", "Restore read_ctrl saved by freeze",
		func(c *command.ApiClient) error { return c.Restore() })
}

func NewResetCommand() *cobra.Command {
	return newActionCommand("reset", "Write default values into all registers",
		func(c *command.ApiClient) error { return c.Reset() })
}
