// Command gridseq-harness drives a core.Engine from the terminal: it
// can list available MIDI ports, run the engine against a real
// hardware pad controller, or open a dry-run terminal visualizer with
// no hardware attached.
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/gridseq/gridseq/config"
	"github.com/gridseq/gridseq/core"
	"github.com/gridseq/gridseq/debuglog"
	"github.com/gridseq/gridseq/harness"
)

var (
	flagSampleRate     float64
	flagTempo          float64
	flagSequenceLength int
	flagPitchOffset    int
	flagHardwarePort   string
	flagDebug          bool
	flagSamplesPerTick int
	flagTickMillis     int
)

func main() {
	root := &cobra.Command{
		Use:   "gridseq-harness",
		Short: "Reference host for the gridseq step sequencer engine",
	}
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable file logging to ~/.config/gridseq/debug.log")

	root.AddCommand(listCmd(), runCmd(), tuiCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available MIDI input and output ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("inputs:")
			for i, p := range gomidi.GetInPorts() {
				fmt.Printf("  %d: %s\n", i, p.String())
			}
			fmt.Println("outputs:")
			for i, p := range gomidi.GetOutPorts() {
				fmt.Printf("  %d: %s\n", i, p.String())
			}
			return nil
		},
	}
}

func newEngine() (*core.Engine, error) {
	if flagSampleRate <= 0 {
		flagSampleRate = 48000
	}
	e, err := core.NewEngine(flagSampleRate)
	if err != nil {
		return nil, err
	}
	if flagTempo > 0 {
		e.Clock().SetTempo(flagTempo)
	}
	if flagSequenceLength > 0 {
		e.Pattern().SetLength(flagSequenceLength)
	}
	if flagPitchOffset > 0 {
		e.Pattern().SetPitchOffset(flagPitchOffset)
	}
	return e, nil
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine against a hardware pad controller and a synth output",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagDebug {
				if err := debuglog.Enable(); err != nil {
					return fmt.Errorf("gridseq: enable debug log: %w", err)
				}
				defer debuglog.Disable()
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("gridseq: load config: %w", err)
			}

			portName := flagHardwarePort
			if portName == "" {
				for _, c := range cfg.AutoConnectControllers() {
					portName = c.PortName
					break
				}
			}
			if portName == "" {
				return fmt.Errorf("gridseq: no hardware port given and no auto-connect controller configured")
			}

			in := harness.FindInPort(portName)
			out := harness.FindOutPort(portName)
			if in == nil || out == nil {
				return fmt.Errorf("gridseq: hardware port %q not found", portName)
			}

			primaryOut := out
			if name := cfg.SynthOutput.PortName; name != "" {
				primaryOut = harness.FindOutPort(name)
				if primaryOut == nil {
					return fmt.Errorf("gridseq: synth output port %q not found", name)
				}
			}

			e, err := newEngine()
			if err != nil {
				return err
			}

			r, err := harness.NewRunner(e, harness.Ports{
				PrimaryOut:  primaryOut,
				HardwareOut: out,
				HardwareIn:  in,
			})
			if err != nil {
				return err
			}
			defer r.Close()

			debuglog.Log("run", "engine started on port %q, sample_rate=%v", portName, flagSampleRate)

			samplesPerTick := int32(flagSamplesPerTick)
			if samplesPerTick <= 0 {
				samplesPerTick = 256
			}
			period := time.Duration(flagTickMillis) * time.Millisecond
			if period <= 0 {
				period = 5 * time.Millisecond
			}
			r.RunForever(samplesPerTick, period, nil)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagHardwarePort, "port", "", "hardware controller port name substring (defaults to config)")
	addCommonFlags(cmd)
	return cmd
}

func tuiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open a terminal visualizer driven by a free-running engine (no hardware required)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			samplesPerTick := int32(flagSamplesPerTick)
			if samplesPerTick <= 0 {
				samplesPerTick = 2400
			}
			period := time.Duration(flagTickMillis) * time.Millisecond
			if period <= 0 {
				period = 50 * time.Millisecond
			}
			m := harness.NewModel(e, samplesPerTick, period)
			p := tea.NewProgram(m)
			_, err = p.Run()
			return err
		},
	}
	addCommonFlags(cmd)
	return cmd
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&flagSampleRate, "sample-rate", 48000, "host sample rate in Hz")
	cmd.Flags().Float64Var(&flagTempo, "tempo", 120, "starting tempo in BPM")
	cmd.Flags().IntVar(&flagSequenceLength, "length", 16, "starting sequence length")
	cmd.Flags().IntVar(&flagPitchOffset, "pitch-offset", 36, "starting pitch viewport offset")
	cmd.Flags().IntVar(&flagSamplesPerTick, "samples-per-tick", 0, "host buffer size in samples per Tick call")
	cmd.Flags().IntVar(&flagTickMillis, "tick-ms", 0, "wall-clock period between Tick calls")
}
