package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"armlink/bridge"
	"armlink/intent"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "home the arm and serve intents until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openArm(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.gen.Home(a.cfg.Duration("normal")); err != nil {
				return err
			}

			if a.cfg.MQTT.Broker != "" {
				return runBridge(a)
			}
			return runStdin(a)
		},
	}
}

// runBridge serves intents from the broker until a signal arrives.
func runBridge(a *arm) error {
	b, err := bridge.New(a.cfg.MQTT, a.disp, a.log)
	if err != nil {
		return err
	}
	defer b.Close()

	a.log.Infof("serving intents from %s", a.cfg.MQTT.Broker)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	a.log.Info("shutting down")
	return nil
}

// runStdin serves one JSON intent per line, the interactive fallback when
// no broker is configured. Rejected intents are reported and the loop
// continues; nothing here is fatal.
func runStdin(a *arm) error {
	a.log.Info("no broker configured, reading intents from stdin")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		in, err := intent.ParseIntent(line)
		if err != nil {
			a.log.Warnf("%v", err)
			continue
		}
		if err := a.disp.Handle(in); err != nil {
			a.log.Warnf("rejected: %v", err)
			continue
		}
		fmt.Printf("ok: %s\n", a.disp.Current())
	}
	return scanner.Err()
}

func newMoveCommand(opts *rootOptions) *cobra.Command {
	var x, y, z, pitch float64
	var speed string

	cmd := &cobra.Command{
		Use:   "move",
		Short: "move the effector to a Cartesian target",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openArm(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.disp.MoveCartesian(x, y, z, pitch, speed); err != nil {
				return err
			}
			fmt.Printf("%s\n", a.disp.Current())
			return nil
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "target x (mm)")
	cmd.Flags().Float64Var(&y, "y", 0, "target y (mm)")
	cmd.Flags().Float64Var(&z, "z", 0, "target z (mm)")
	cmd.Flags().Float64Var(&pitch, "pitch", 90, "gripper pitch (deg, 90 = straight down)")
	cmd.Flags().StringVar(&speed, "speed", "normal", "slow | normal | fast")
	cmd.MarkFlagRequired("x")
	cmd.MarkFlagRequired("y")
	cmd.MarkFlagRequired("z")
	return cmd
}

func newHomeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "move the arm to the neutral home pose",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openArm(opts)
			if err != nil {
				return err
			}
			defer a.close()
			return a.gen.Home(a.cfg.Duration("normal"))
		},
	}
}

func newGripCommand(opts *rootOptions) *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "grip",
		Short: "open or close the gripper",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openArm(opts)
			if err != nil {
				return err
			}
			defer a.close()
			return a.disp.Handle(&intent.Intent{Command: intent.ActionGrip, Gripper: state})
		},
	}
	cmd.Flags().StringVar(&state, "state", intent.GripperOpen, "open | close")
	return cmd
}

func newEStopCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "estop",
		Short: "emergency stop, bypassing the trajectory generator",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openArm(opts)
			if err != nil {
				return err
			}
			defer a.close()
			return a.disp.EStop()
		},
	}
}
