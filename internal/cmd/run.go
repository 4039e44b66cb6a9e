package cmd

import (
	"os"
	"time"

	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tessera-sim/evsim/metrics"
	"github.com/tessera-sim/evsim/models/queuing"
	"github.com/tessera-sim/evsim/monitoring"
	"github.com/tessera-sim/evsim/registry"
	"github.com/tessera-sim/evsim/sim"
	"github.com/tessera-sim/evsim/topology"
)

var runCmd = &cobra.Command{
	Use:   "run [topology.json]",
	Short: "Load a topology and run its simulation to completion.",
	Args:  cobra.ExactArgs(1),
	Run:   runSimulation,
}

var (
	runMonitorPort int
	runOpenBrowser bool
	runDeadline    time.Duration
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runMonitorPort, "monitor-port", 0,
		"port for the read-only monitoring dashboard (0 disables it)")
	runCmd.Flags().BoolVar(&runOpenBrowser, "open", false,
		"open the monitoring dashboard in the default browser once it's listening")
	runCmd.Flags().DurationVar(&runDeadline, "deadline", 0,
		"wall-clock deadline after which the run is aborted (0 means no deadline)")
}

func runSimulation(cmd *cobra.Command, args []string) {
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Fatal("failed to open topology")
	}
	defer f.Close()

	doc, err := topology.Decode(f)
	if err != nil {
		log.WithError(err).Fatal("failed to decode topology")
	}

	reg := registry.New()
	if err := queuing.Register(reg); err != nil {
		log.WithError(err).Fatal("failed to register queuing models")
	}

	s := sim.NewSimulation(reg)

	collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		log.WithError(err).Fatal("failed to create metrics collector")
	}
	s.AcceptHook(collector)

	if err := topology.Load(s, doc, log); err != nil {
		log.WithError(err).Fatal("failed to load topology")
	}

	var mon *monitoring.Monitor
	if runMonitorPort != 0 {
		mon = monitoring.NewMonitor().WithPortNumber(runMonitorPort)
		mon.RegisterSimulation(s)
		mon.RegisterCollector(collector)
		mon.StartServer()

		log.WithField("addr", mon.Addr().String()).Info("monitoring dashboard listening")

		if runOpenBrowser {
			if err := browser.OpenURL("http://" + mon.Addr().String()); err != nil {
				log.WithError(err).Warn("failed to open browser")
			}
		}
	}

	if runDeadline > 0 {
		go func() {
			time.Sleep(runDeadline)
			if s.State() == sim.StateRun {
				log.Warn("deadline reached, stopping simulation")
				s.SetState(sim.StateDone)
			}
		}()
	}

	s.SetState(sim.StateRun)
	s.Run()

	log.WithField("simtime", s.Simtime()).Info("simulation finished")
}
