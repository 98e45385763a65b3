// Package hashchain wires the work engine, FPGA bridge, registry,
// validator, and counters into the actor that runs one physical
// hashchain end to end: pulling jobs, rolling and submitting work,
// and classifying solutions as they come back, all supervised through
// a lifecycle.Monitor the way the board-level daemon watches for a
// first fatal error from any of its goroutines.
package hashchain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/braiins-s9/hashboard-core/internal/bitcoin"
	"github.com/braiins-s9/hashboard-core/internal/config"
	"github.com/braiins-s9/hashboard-core/internal/fpga"
	"github.com/braiins-s9/hashboard-core/internal/hberrors"
	"github.com/braiins-s9/hashboard-core/internal/job"
	"github.com/braiins-s9/hashboard-core/internal/lifecycle"
	"github.com/braiins-s9/hashboard-core/internal/logx"
	"github.com/braiins-s9/hashboard-core/internal/registry"
	"github.com/braiins-s9/hashboard-core/internal/stats"
	"github.com/braiins-s9/hashboard-core/internal/validator"
	"github.com/braiins-s9/hashboard-core/internal/workengine"
)

// JobSource supplies the next block template a chain should roll work
// from, blocking until one is ready or ctx is cancelled.
type JobSource interface {
	NextJob(ctx context.Context) (*job.Job, error)
}

// SolutionSink receives every solution a chain classifies as at least
// JobValid, for forwarding to the pool client.
type SolutionSink interface {
	SubmitSolution(job.Solution)
}

// midstateCountFPGA converts the config's domain-level midstate count
// into the fpga package's own type, which the bridge and ext-work-id
// codec are expressed in terms of.
func midstateCountFPGA(m config.MidstateCount) fpga.MidstateCount {
	return fpga.MidstateCount(m)
}

// Bridge is the FPGA work/command transport a Chain drives; *fpga.Bridge
// satisfies it directly. Expressed as an interface so a simulation
// harness can substitute a fake register block without touching the
// Chain's own logic.
type Bridge interface {
	SetMidstateCount(m fpga.MidstateCount)
	WaitForWorkTxRoom(ctx context.Context) error
	SendWork(payload *fpga.WorkPayload) error
	RecvSolution(ctx context.Context) (uint32, fpga.SolutionReply, error)
}

// Chain drives one hashchain's full work lifecycle.
type Chain struct {
	idx    int
	bridge Bridge

	midstateCount fpga.MidstateCount
	jobTimeout    time.Duration

	registry  *registry.WorkRegistry
	validator *validator.Validator
	counters  *stats.ChainCounters
	hashrate  *stats.WindowedTimeMean

	jobs      JobSource
	solutions SolutionSink

	monitor *lifecycle.Monitor
	log     *logx.Logger
}

// New builds a Chain over an already-opened bridge. backendDifficulty
// is the chip-level accept threshold (looser than the pool's job
// difficulty), used to classify BackendValid solutions for hashrate
// measurement even when they don't clear the job target.
func New(idx int, bridge Bridge, cfg config.Config, backendDifficulty uint64, jobs JobSource, solutions SolutionSink, log *logx.Logger) *Chain {
	mc := midstateCountFPGA(cfg.MidstateCount)
	jobTarget := bitcoin.DifficultyToTarget(cfg.AsicDifficulty)
	backendTarget := bitcoin.DifficultyToTarget(backendDifficulty)

	return &Chain{
		idx:           idx,
		bridge:        bridge,
		midstateCount: mc,
		jobTimeout:    cfg.JobTimeout,
		registry:      registry.NewWorkRegistry(mc.WorkIDCount()),
		validator:     validator.New(jobTarget, backendTarget),
		counters:      stats.NewChainCounters(cfg.ChipCount, cfg.AsicDifficulty),
		hashrate:      stats.NewWindowedTimeMean(cfg.HashrateInterval),
		jobs:          jobs,
		solutions:     solutions,
		monitor:       lifecycle.NewMonitor(),
		log:           log,
	}
}

// Name identifies the chain for logging and the status endpoint.
func (c *Chain) Name() string { return fmt.Sprintf("chain%d", c.idx) }

// Status reports the chain's current lifecycle state.
func (c *Chain) Status() lifecycle.Status { return c.monitor.Current() }

// Counters exposes the chain's nonce/error accumulator.
func (c *Chain) Counters() *stats.ChainCounters { return c.counters }

// HashrateHz estimates the chain's current hash rate in hashes per
// second, derived from the windowed difficulty-weighted share mean:
// one share of chain difficulty d represents on average d*2^32 hashes.
func (c *Chain) HashrateHz() float64 {
	sharesPerSecond := c.hashrate.Measure(time.Now())
	return sharesPerSecond * float64(c.counters.AsicDifficulty) * 4294967296.0
}

// Summary rolls the chain's counters and hashrate estimate into one
// CGMiner-style snapshot for the status endpoint.
func (c *Chain) Summary() stats.Summary {
	return stats.BuildSummary(c.counters, c.hashrate, time.Now())
}

// Run drives the chain's submitter and receiver loops until ctx is
// cancelled or either loop reports a fatal error, following the
// teacher's first-error-wins supervision shape: the first goroutine to
// fail cancels the group's context so the other unwinds promptly.
func (c *Chain) Run(ctx context.Context) error {
	if !c.monitor.InitiateStarting() {
		return fmt.Errorf("hashchain: %s: already running", c.Name())
	}
	c.bridge.SetMidstateCount(c.midstateCount)
	c.monitor.SetRunning()
	c.log.Printf("%s: running", c.Name())

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return c.submitLoop(gctx) })
	group.Go(func() error { return c.receiveLoop(gctx) })

	err := group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		c.monitor.InitiateFailing()
		c.monitor.CanStop()
		c.log.Warnf("%s: stopped with error: %v", c.Name(), err)
		return err
	}
	c.monitor.InitiateStopping()
	c.monitor.CanStop()
	c.log.Printf("%s: stopped", c.Name())
	return nil
}

// submitLoop pulls jobs and feeds the FPGA's work-tx FIFO with rolled
// assignments until the current job's version subspace is exhausted,
// then pulls the next one.
func (c *Chain) submitLoop(ctx context.Context) error {
	for {
		jobCtx, cancel := context.WithTimeout(ctx, c.jobTimeout)
		j, err := c.jobs.NextJob(jobCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("hashchain: %s: next job: %w", c.Name(), err)
		}

		engine := workengine.NewEngine(j.Engine(), int(c.midstateCount))
		for !engine.IsExhausted() {
			if err := ctx.Err(); err != nil {
				return nil
			}

			assignment, ok := engine.NextAssignment()
			if !ok {
				break
			}

			workID := c.registry.StoreWork(assignment)
			if err := c.sendAssignment(ctx, workID, assignment); err != nil {
				return err
			}
		}
	}
}

// sendAssignment waits for FIFO room and pushes one midstate's work
// payload per midstate in assignment, addressed by workID.
func (c *Chain) sendAssignment(ctx context.Context, workID int, assignment workengine.Assignment) error {
	for midstateIdx, ms := range assignment.Midstates {
		if err := c.bridge.WaitForWorkTxRoom(ctx); err != nil {
			return fmt.Errorf("hashchain: %s: wait for work tx room: %w", c.Name(), err)
		}

		extID := fpga.EncodeExtWorkID(c.midstateCount, fpga.ExtWorkID{WorkID: workID, MidstateIdx: midstateIdx})
		payload := &fpga.WorkPayload{
			Midstate:       ms.State,
			ID:             byte(extID & 0x7f),
			Bits:           assignment.Job.Bits,
			Time:           assignment.Ntime,
			MerkleRootTail: assignment.MerkleRootTail,
		}
		if err := c.bridge.SendWork(payload); err != nil {
			return fmt.Errorf("hashchain: %s: send work: %w", c.Name(), err)
		}
	}
	return nil
}

// receiveLoop blocks for found-nonce interrupts, resolves each
// solution against the registry, classifies it, and updates counters
// and the hashrate estimator.
func (c *Chain) receiveLoop(ctx context.Context) error {
	for {
		nonce, reply, err := c.bridge.RecvSolution(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, hberrors.ErrFifoTimedOut) {
				if ctx.Err() != nil {
					return nil
				}
				continue
			}
			return fmt.Errorf("hashchain: %s: recv solution: %w", c.Name(), err)
		}

		extID := fpga.DecodeExtWorkID(c.midstateCount, int(reply.ExtWorkID))
		status, stale := c.registry.InsertSolution(extID.WorkID, registry.Solution{
			Nonce:       nonce,
			MidstateIdx: extID.MidstateIdx,
			SolutionIdx: int(reply.SolutionIdx),
		})
		if stale {
			c.log.Warnf("%s: solution against stale work id %d discarded", c.Name(), extID.WorkID)
			continue
		}
		if status.Duplicate {
			continue
		}

		c.classify(status.Solution, nonce, extID.MidstateIdx)
	}
}

func (c *Chain) classify(item *registry.ItemSolution, nonce uint32, midstateIdx int) {
	result, err := c.validator.Validate(item.Work, midstateIdx, nonce)
	if err != nil {
		c.log.Warnf("%s: validate solution: %v", c.Name(), err)
		return
	}

	switch result.Classification {
	case validator.Discarded:
		return
	case validator.BackendError:
		c.counters.AddErrorUnattributed()
	case validator.BackendValid:
		c.counters.AddValidUnattributed()
		c.hashrate.Insert(1, time.Now())
	case validator.JobValid, validator.NetworkValid:
		c.counters.AddValidUnattributed()
		c.hashrate.Insert(1, time.Now())
		if c.solutions != nil {
			c.solutions.SubmitSolution(job.Solution{
				Work: item.Work,
				Backend: job.BackendSolution{
					Nonce:         nonce,
					MidstateIdx:   midstateIdx,
					SolutionIdx:   uint8(item.Solution.SolutionIdx),
					BackendTarget: c.validator.BackendTarget,
				},
				Observed: time.Now(),
				Hash:     result.Hash,
			})
		}
	}
}
