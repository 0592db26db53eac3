//-----------------------------------------------------------------------------
/*

Arm Controller

Drives a 5 DOF serial-servo arm: inverse kinematics, safety gating, timed
interpolation and servo command encoding. Intents arrive over MQTT or, with
no broker configured, as JSON lines on stdin.

*/
//-----------------------------------------------------------------------------

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions holds the global flags.
type rootOptions struct {
	ConfigPath string
	Port       string
	DryRun     bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "armlink",
		Short:         "serial servo arm controller",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "arm_config.yaml", "arm configuration file")
	cmd.PersistentFlags().StringVarP(&opts.Port, "port", "p", "", "serial port override")
	cmd.PersistentFlags().BoolVar(&opts.DryRun, "dry-run", false, "discard servo commands instead of writing to the port")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newMoveCommand(opts))
	cmd.AddCommand(newHomeCommand(opts))
	cmd.AddCommand(newGripCommand(opts))
	cmd.AddCommand(newEStopCommand(opts))

	return cmd
}
