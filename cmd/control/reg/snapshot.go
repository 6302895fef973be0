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
	"sort"

	"github.com/spf13/cobra"

	"github.com/rpsim/go-dummy/pkg/command"
	"github.com/rpsim/go-dummy/pkg/config"
)

func NewSnapshotCommand() *cobra.Command {
	var show bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "snapshot name",
		Short: "Store register values on the server or show a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			if !show {
				return apiClient.SaveSnapshot(args[0])
			}
			snapshot, err := apiClient.Snapshot(args[0])
			if err != nil {
				return err
			}
			var keys []string
			for key := range snapshot {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "Register state: %s = %s\n", key, snapshot[key])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "Show the stored snapshot instead of taking one")

	return cmd
}
