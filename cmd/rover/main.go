// Command rover runs the vehicle control core: the rangefinder poller, the
// obstacle-avoidance loop, the command arbiter and the websocket control
// surface.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-rover/internal/config"
	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/avoid"
	"github.com/teslashibe/go-rover/pkg/car"
	"github.com/teslashibe/go-rover/pkg/distance"
	"github.com/teslashibe/go-rover/pkg/hub"
	"github.com/teslashibe/go-rover/pkg/hw"
	"github.com/teslashibe/go-rover/pkg/task"
	"github.com/teslashibe/go-rover/pkg/web"
)

func main() {
	log.Init(config.LogLevel())

	actuator, ranger, cleanup, err := openHardware()
	if err != nil {
		log.Error("hardware init failed", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	params := avoid.DefaultParams()
	if err := params.Validate(); err != nil {
		log.Error("default avoid params invalid", "err", err)
		os.Exit(1)
	}

	cell := distance.NewCell()
	poller := distance.NewPoller(ranger, cell, config.PollInterval())

	stateHub := hub.New("state")
	supervisor := task.NewSupervisor(actuator)

	svc := car.NewService(actuator, cell, stateHub, supervisor, car.DefaultConfig())
	stateHub.SetSnapshot(func() any { return svc.Snapshot() })
	ctrl := avoid.NewController(cell, svc, params)
	svc.SetAvoidLoop(ctrl.Run)
	svc.SetIndicator(hw.NewBlinker(actuator, 500*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go svc.RunDistanceReporter(ctx, config.PollInterval())

	// The poller fails fast on a structural sensor fault; restart it with
	// a short backoff until shutdown.
	go func() {
		for {
			err := poller.Run(ctx)
			if ctx.Err() != nil {
				return
			}
			log.Warn("rangefinder poller restarting", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}()

	server := web.NewServer(config.WebPort(), svc, ctrl, stateHub)
	go func() {
		if err := server.Start(); err != nil {
			log.Error("web server stopped", "err", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}

	log.Info("shutting down")
	cancel()
	supervisor.Cancel() // leaves the vehicle stopped and centered
	if err := server.Shutdown(); err != nil {
		log.Warn("server shutdown", "err", err)
	}
}

// openHardware selects real serial backends or the simulator (ROVER_SIM=1).
func openHardware() (hw.Actuator, distance.Ranger, func(), error) {
	if config.Simulated() {
		log.Info("using simulated hardware")
		ranger := distance.NewSimRanger(100)
		return hw.NewSimActuator(), ranger, func() {}, nil
	}

	actuator, err := hw.OpenSerialActuator(config.MotorPort(), config.DefaultBaudRate, hw.Calibration{})
	if err != nil {
		return nil, nil, nil, err
	}
	ranger, err := distance.OpenSerialRanger(config.RangerPort(), config.DefaultBaudRate, config.DefaultReadTimeout)
	if err != nil {
		actuator.Close()
		return nil, nil, nil, err
	}

	cleanup := func() {
		ranger.Close()
		actuator.Close()
	}
	return actuator, ranger, cleanup, nil
}
