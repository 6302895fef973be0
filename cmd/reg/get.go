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
package reg

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rpsim/go-dummy/pkg/command"
	"github.com/rpsim/go-dummy/pkg/config"
)

func NewGetCommand() *cobra.Command {
	var addr string
	var size uint32
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get reg value",
		RunE: func(cmd *cobra.Command, args []string) error {
			regClient, err := command.NewRegClient(cfg)
			if err != nil {
				return err
			}
			addrInt, err := strconv.ParseUint(addr, 0, 16)
			if err != nil {
				return err
			}
			if size <= 1 {
				value, err := regClient.RegRead(uint16(addrInt))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "0x%03x = 0x%08x\n", addrInt, value)
				return nil
			}
			values, err := regClient.MemRead(uint32(addrInt), size)
			if err != nil {
				return err
			}
			for i, value := range values {
				fmt.Fprintf(cmd.OutOrStdout(), "0x%03x = 0x%08x\n", addrInt+uint64(i)*4, value)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, AddrOptionName, "", "Register offset (hexadecimal)")
	cmd.MarkFlagRequired(AddrOptionName)
	cmd.Flags().Uint32Var(&size, SizeOptionName, 1, "Number of consecutive registers")

	return cmd
}
