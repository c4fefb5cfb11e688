package main

import (
	"fmt"
	"io"
	"os"

	"cloudpico-sensortag/internal/sensortag"
	"cloudpico-sensortag/internal/utils"
)

const usage = `usage: %s <command>
  decode <sensor> <hex> [axis]  decode a captured frame (axis: x|y|z|xy|xz|yz|xyz)
  uuids [sensor]                print GATT identifiers
`

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintf(stderr, usage, args[0])
		return 1
	}

	switch args[1] {
	case "decode":
		if len(args) < 4 {
			fmt.Fprintf(stderr, usage, args[0])
			return 1
		}
		if err := decode(stdout, args[2], args[3], args[4:]); err != nil {
			fmt.Fprintf(stderr, "decode: %v\n", err)
			return 1
		}
	case "uuids":
		kinds := sensortag.Kinds
		if len(args) > 2 {
			k, err := sensortag.ParseKind(args[2])
			if err != nil {
				fmt.Fprintf(stderr, "uuids: %v\n", err)
				return 1
			}
			kinds = []sensortag.Kind{k}
		}
		for _, k := range kinds {
			printIdentifiers(stdout, k)
		}
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[1])
		return 1
	}
	return 0
}

func decode(w io.Writer, sensor, frame string, rest []string) error {
	kind, err := sensortag.ParseKind(sensor)
	if err != nil {
		return err
	}
	raw, err := utils.ParseHex(frame)
	if err != nil {
		return err
	}
	axis := sensortag.AxisXYZ
	if len(rest) > 0 {
		if axis, err = sensortag.ParseGyroscopeAxis(rest[0]); err != nil {
			return err
		}
	}

	reading, err := sensortag.Decode(kind, raw, axis)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s\n", kind, utils.BytesToHex(raw))
	for _, f := range reading.Fields {
		fmt.Fprintf(w, "  %-12s %g %s\n", f.Name, f.Value, f.Unit)
	}
	return nil
}

func printIdentifiers(w io.Writer, kind sensortag.Kind) {
	ids := sensortag.IdentifiersFor(kind)
	fmt.Fprintf(w, "%s\n", kind)
	fmt.Fprintf(w, "  service      %s\n", ids.Service)
	fmt.Fprintf(w, "  data         %s\n", ids.Data)
	if ids.HasConfig() {
		fmt.Fprintf(w, "  config       %s\n", ids.Config)
	}
	if ids.HasPeriod() {
		fmt.Fprintf(w, "  period       %s\n", ids.Period)
	}
	if ids.HasCalibration() {
		fmt.Fprintf(w, "  calibration  %s\n", ids.Calibration)
	}
}
