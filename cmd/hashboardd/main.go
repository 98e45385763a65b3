// Command hashboardd is the hashboard control daemon: it loads
// configuration, opens every hashchain's FPGA bridge, starts the
// shared fan-control and sensor loop, and serves the status endpoint,
// all supervised so a single chain's fatal error doesn't take the
// others down silently.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/braiins-s9/hashboard-core/internal/config"
	"github.com/braiins-s9/hashboard-core/internal/fan"
	"github.com/braiins-s9/hashboard-core/internal/fpga"
	"github.com/braiins-s9/hashboard-core/internal/hashchain"
	"github.com/braiins-s9/hashboard-core/internal/i2cbus"
	"github.com/braiins-s9/hashboard-core/internal/job"
	"github.com/braiins-s9/hashboard-core/internal/logx"
	"github.com/braiins-s9/hashboard-core/internal/sensor"
	_ "github.com/braiins-s9/hashboard-core/internal/sensor/tmp451"
	"github.com/braiins-s9/hashboard-core/internal/status"
	"github.com/braiins-s9/hashboard-core/internal/workengine"
)

func main() {
	configPath := flag.String("config", "", "path to the board YAML configuration file")
	chainCount := flag.Int("chains", 3, "number of hashchains to drive on this board")
	disableAsicBoost := flag.Bool("disable-asicboost", false, "force single-midstate work, disabling version rolling")
	frequencyMHz := flag.Int("frequency-mhz", 0, "override the configured per-chip clock frequency (0 keeps the config/default value)")
	listenAddr := flag.String("listen", ":8080", "status HTTP server listen address")
	i2cBusNum := flag.Int("i2c-bus", 1, "/dev/i2c-N bus number the fan/sensor controller lives on")
	flag.Parse()

	log := logx.New("hashboardd")

	var overrides []config.Override
	if *disableAsicBoost {
		overrides = append(overrides, config.WithDisableAsicBoost())
	}
	if *frequencyMHz > 0 {
		overrides = append(overrides, config.WithFrequencyMHz(*frequencyMHz))
	}

	cfg, err := config.Load(*configPath, overrides...)
	if err != nil {
		log.Printf("config: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *chainCount, *i2cBusNum, *listenAddr, log); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, chainCount, i2cBusNum int, listenAddr string, log *logx.Logger) error {
	group, gctx := errgroup.WithContext(ctx)

	chains := make([]*hashchain.Chain, 0, chainCount)
	for i := 0; i < chainCount; i++ {
		chainLog := logx.New(fmt.Sprintf("chain%d", i))
		bridge, err := fpga.OpenBridge(i, chainLog)
		if err != nil {
			log.Warnf("chain%d: open bridge: %v (skipping)", i, err)
			continue
		}

		clients := job.NewClientTable()
		origin := clients.Register(selfTestClient{})
		chain := hashchain.New(i, bridge, cfg, cfg.AsicDifficulty, &selfTestJobSource{origin: origin}, nil, chainLog)
		chains = append(chains, chain)

		group.Go(func() error { return chain.Run(gctx) })
	}

	if len(chains) == 0 {
		return fmt.Errorf("hashboardd: no hashchain bridges could be opened")
	}

	fanStop := startFanLoop(gctx, cfg, i2cBusNum, log, &group)

	views := make([]status.ChainView, len(chains))
	for i, c := range chains {
		views[i] = c
	}
	server := status.NewServer(views, log)
	httpServer := &http.Server{Addr: listenAddr, Handler: server.Handler()}

	group.Go(func() error {
		log.Printf("status server listening on %s", listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("hashboardd: status server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := group.Wait()
	fanStop()
	return err
}

// startFanLoop opens the shared fan register block and I2C-backed
// temperature sensor (if either is unavailable, the loop logs and
// exits quietly rather than taking the whole daemon down over
// cooling telemetry) and runs the PID control loop until ctx is
// cancelled. The returned func blocks until the loop has exited.
func startFanLoop(ctx context.Context, cfg config.Config, i2cBusNum int, log *logx.Logger, group *errgroup.Group) func() {
	var wg sync.WaitGroup
	wg.Add(1)
	group.Go(func() error {
		defer wg.Done()

		fanLog := logx.New("fan")
		regs, err := fpga.OpenFanRegs(fanLog)
		if err != nil {
			fanLog.Warnf("open fan registers: %v (fan control disabled)", err)
			return nil
		}
		defer regs.Close()

		transport, err := i2cbus.OpenLinuxTransport(i2cBusNum)
		if err != nil {
			fanLog.Warnf("open i2c bus %d: %v (fan control disabled)", i2cBusNum, err)
			return nil
		}
		bus := i2cbus.NewBus(transport)
		defer bus.Close()

		temp, err := sensor.Probe(bus, fanLog)
		if err != nil || temp == nil {
			fanLog.Warnf("no temperature sensor found (fan control disabled): %v", err)
			return nil
		}
		if err := temp.Init(); err != nil {
			fanLog.Warnf("sensor init: %v (fan control disabled)", err)
			return nil
		}

		control := fan.NewControl(regs, fanLog)
		tempControl := fan.NewTempControl(cfg.FanTargetTemperatureC)

		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				reading, err := temp.ReadTemperature()
				if err != nil {
					fanLog.Warnf("read temperature: %v", err)
					continue
				}
				pwm := tempControl.Update(float64(reading.LocalCelsius))
				if err := control.SetPWM(fan.Speed(pwm)); err != nil {
					fanLog.Warnf("set pwm: %v", err)
				}
			}
		}
	})
	return wg.Wait
}

// selfTestClient is the job.Client a self-test job source registers
// itself as; hashboardd has no pool-protocol client wired in, so every
// chain runs the null-work self-test pattern until one is.
type selfTestClient struct{}

func (selfTestClient) String() string { return "self-test" }

// selfTestJobSource hands out the open-core bring-up job forever. It's
// a placeholder standing in for a pool-protocol JobSource, which is
// out of scope for this daemon.
type selfTestJobSource struct {
	origin job.Handle
}

func (s *selfTestJobSource) NextJob(ctx context.Context) (*job.Job, error) {
	assignment := workengine.PrepareOpenCoreWork(true, 1)
	j := &job.Job{
		Version: assignment.Job.Version,
		Bits:    assignment.Job.Bits,
		Time:    assignment.Job.Time,
		MaxTime: assignment.Job.MaxTime,
		Origin:  s.origin,
	}
	j.PreviousHash = assignment.Job.PreviousHash
	j.MerkleRoot = assignment.Job.MerkleRoot
	return j, nil
}
