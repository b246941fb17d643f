// venueplay hosts the built-in sine voice against the default audio and MIDI
// hardware. Point a MIDI keyboard at it and play, or just verify that the
// audio path comes up cleanly.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/glasshall/venue"
	"github.com/glasshall/venue/performer"
)

type demoProgram struct{}

func (demoProgram) Name() string { return "sine" }

func main() {
	var (
		configPath string
		rate       float64
		block      int
		inputs     int
		outputs    int
		verbose    bool
	)

	root := &cobra.Command{
		Use:          "venueplay",
		Short:        "Play a sine voice through the default audio device, driven by live MIDI",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := venue.DefaultRequirements
			if configPath != "" {
				loaded, err := venue.LoadRequirements(configPath)
				if err != nil {
					return err
				}
				req = loaded
			}
			if cmd.Flags().Changed("rate") {
				req.SampleRate = rate
			}
			if cmd.Flags().Changed("block") {
				req.BlockSize = block
			}
			if cmd.Flags().Changed("in") {
				req.NumInputChannels = inputs
			}
			if cmd.Flags().Changed("out") {
				req.NumOutputChannels = outputs
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			req.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			return run(req)
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "YAML requirements file")
	root.Flags().Float64Var(&rate, "rate", 48000, "sample rate in Hz (0 = device default)")
	root.Flags().IntVar(&block, "block", 512, "frames per block (0 = device default)")
	root.Flags().IntVar(&inputs, "in", 0, "input channels to request")
	root.Flags().IntVar(&outputs, "out", 2, "output channels to request")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "log device and MIDI activity")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(req venue.Requirements) error {
	var voice *sinePerformer
	factory := performer.Factory(func() performer.Performer {
		voice = newSinePerformer(req.SampleRate)
		return voice
	})

	v, err := venue.New(req, factory)
	if err != nil {
		return err
	}
	defer v.Close()

	s := v.CreateSession()
	defer s.Close()

	st := s.Status()
	voice.sampleRate = st.SampleRate

	diags, err := s.Load(demoProgram{})
	printDiagnostics(diags)
	if err != nil {
		return err
	}
	if diags, err = s.Link(performer.LinkOptions{}); err != nil {
		printDiagnostics(diags)
		return err
	}

	if err := v.ConnectSessionInputEndpoint(s, "midiIn", "defaultMidiIn"); err != nil {
		return err
	}
	if err := v.ConnectSessionOutputEndpoint(s, "audioOut", "defaultOut"); err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}

	fmt.Printf("playing: %.0f Hz, %d-frame blocks, %d output channels\n",
		st.SampleRate, st.BlockSize, req.NumOutputChannels)
	fmt.Println("press ctrl-c to stop")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			fmt.Println("\nstopping")
			return nil
		case <-ticker.C:
			st := s.Status()
			fmt.Printf("\rcpu %5.1f%%  xruns %d  state %s   ",
				st.CPULoad*100, st.XRuns, st.State)
		}
	}
}

func printDiagnostics(diags performer.Diagnostics) {
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%s: %s\n", d.Severity, d.Message)
	}
}
