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
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rpsim/go-dummy/pkg/command"
	"github.com/rpsim/go-dummy/pkg/config"
	"github.com/rpsim/go-dummy/pkg/params"
)

func NewParamsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Get and set DUMMY parameters",
	}
	cmd.AddCommand(NewParamsGetCommand())
	cmd.AddCommand(NewParamsSetCommand())
	cmd.AddCommand(NewParamsReadbackCommand())
	cmd.AddCommand(NewParamsStoreCommand("save", "Store writable parameters on the server"))
	cmd.AddCommand(NewParamsStoreCommand("load", "Load stored parameters and apply them"))
	return cmd
}

func printParams(out io.Writer, p []params.Param, names []string) error {
	if len(names) == 0 {
		for _, param := range p {
			fmt.Fprintf(out, "%s = %g\n", param.Name, param.Value)
		}
		return nil
	}
	byName := make(map[string]params.Param, len(p))
	for _, param := range p {
		byName[param.Name] = param
	}
	for _, name := range names {
		param, ok := byName[name]
		if !ok {
			return params.ErrUnknownParam{Name: name}
		}
		fmt.Fprintf(out, "%s = %g\n", param.Name, param.Value)
	}
	return nil
}

func NewParamsGetCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "get [name...]",
		Short: "Print parameter values",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := command.NewApiClient(cfg).Params()
			if err != nil {
				return err
			}
			return printParams(cmd.OutOrStdout(), p, args)
		},
	}
	return cmd
}

// ParseAssignments parses name=value pairs
func ParseAssignments(args []string) (map[string]float32, error) {
	values := make(map[string]float32, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("Wrong assignment %q. Must be name=value", arg)
		}
		value, err := strconv.ParseFloat(parts[1], 32)
		if err != nil {
			return nil, errors.Wrapf(err, "Wrong value of %s", parts[0])
		}
		values[parts[0]] = float32(value)
	}
	return values, nil
}

func NewParamsSetCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "set name=value...",
		Short: "Set parameters and apply them to the registers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := ParseAssignments(args)
			if err != nil {
				return err
			}
			_, err = command.NewApiClient(cfg).SetParams(values)
			return err
		},
	}
	return cmd
}

func NewParamsReadbackCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "readback [name...]",
		Short: "Read registers into parameters while sampling is frozen",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := command.NewApiClient(cfg).Readback()
			if err != nil {
				return err
			}
			return printParams(cmd.OutOrStdout(), p, args)
		},
	}
	return cmd
}

func NewParamsStoreCommand(action, short string) *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			var n int
			var err error
			if action == "save" {
				n, err = apiClient.SaveParams()
			} else {
				n, err = apiClient.LoadParams()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d parameters\n", n)
			return nil
		},
	}
	return cmd
}
