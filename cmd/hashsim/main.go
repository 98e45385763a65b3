// Command hashsim is a bring-up harness: it drives one hashchain.Chain
// against a fake, in-memory FPGA register block instead of real
// hardware, so the work-roll/submit/receive/validate pipeline can be
// exercised and watched on a development machine.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/braiins-s9/hashboard-core/internal/config"
	"github.com/braiins-s9/hashboard-core/internal/fpga"
	"github.com/braiins-s9/hashboard-core/internal/hashchain"
	"github.com/braiins-s9/hashboard-core/internal/job"
	"github.com/braiins-s9/hashboard-core/internal/logx"
	"github.com/braiins-s9/hashboard-core/internal/workengine"
)

func main() {
	solveRate := flag.Duration("solve-interval", 50*time.Millisecond, "mean time between simulated found-nonce events")
	runFor := flag.Duration("for", 10*time.Second, "how long to run before exiting")
	flag.Parse()

	log := logx.New("hashsim")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	cfg.ChipCount = 1

	bridge := newFakeBridge(cfg, *solveRate)
	clients := job.NewClientTable()
	origin := clients.Register(simClient{})

	chain := hashchain.New(0, bridge, cfg, cfg.AsicDifficulty, &simJobSource{origin: origin}, loggingSink{log: log}, log)

	runCtx, cancel := context.WithTimeout(ctx, *runFor)
	defer cancel()

	if err := chain.Run(runCtx); err != nil && runCtx.Err() == nil {
		log.Printf("chain exited with error: %v", err)
		os.Exit(1)
	}

	snapshot := chain.Counters().Snapshot()
	log.Printf("done: valid=%d errors=%d duration=%s hashrate=%.2f H/s",
		snapshot.Valid, snapshot.Errors, snapshot.Duration(), chain.HashrateHz())
}

// fakeBridge stands in for fpga.Bridge. The real FPGA extends a work
// payload's 7-bit chip-facing tag back to the full 16-bit ext-work-id
// using its own internal submission counter; this fake replicates that
// by keeping the same running counter the registry hands out, since
// SendWork is called in the same strict sequential order the real
// hardware would see it in (one goroutine, one midstate at a time).
type fakeBridge struct {
	mu            sync.Mutex
	midstateCount fpga.MidstateCount
	nextExtID     int
	solutions     chan fpga.SolutionReply
	nonces        chan uint32
	solveInterval time.Duration
	rng           *rand.Rand
}

func newFakeBridge(cfg config.Config, solveInterval time.Duration) *fakeBridge {
	b := &fakeBridge{
		midstateCount: fpga.MidstateCount(cfg.MidstateCount),
		solutions:     make(chan fpga.SolutionReply, 64),
		nonces:        make(chan uint32, 64),
		solveInterval: solveInterval,
		rng:           rand.New(rand.NewSource(1)),
	}
	return b
}

func (b *fakeBridge) SetMidstateCount(m fpga.MidstateCount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.midstateCount = m
}

func (b *fakeBridge) WaitForWorkTxRoom(ctx context.Context) error {
	return nil
}

const extWorkIDSpace = 0x10000

func (b *fakeBridge) SendWork(payload *fpga.WorkPayload) error {
	b.mu.Lock()
	extID := b.nextExtID
	b.nextExtID = (b.nextExtID + 1) % extWorkIDSpace
	b.mu.Unlock()

	go func() {
		jitter := time.Duration(b.rng.Int63n(int64(b.solveInterval)))
		time.Sleep(jitter)

		nonce := b.rng.Uint32()
		select {
		case b.solutions <- fpga.SolutionReply{SolutionIdx: 0, ExtWorkID: uint16(extID)}:
			b.nonces <- nonce
		default:
		}
	}()
	return nil
}

func (b *fakeBridge) RecvSolution(ctx context.Context) (uint32, fpga.SolutionReply, error) {
	select {
	case <-ctx.Done():
		return 0, fpga.SolutionReply{}, ctx.Err()
	case reply := <-b.solutions:
		nonce := <-b.nonces
		return nonce, reply, nil
	}
}

// simClient is the job.Client the simulated job source registers
// itself as.
type simClient struct{}

func (simClient) String() string { return "hashsim" }

// simJobSource hands out open-core bring-up work, the same pattern
// real firmware uses before a pool job has arrived.
type simJobSource struct {
	origin job.Handle
}

func (s *simJobSource) NextJob(ctx context.Context) (*job.Job, error) {
	assignment := workengine.PrepareOpenCoreWork(true, 1)
	return &job.Job{
		Version:      assignment.Job.Version,
		PreviousHash: assignment.Job.PreviousHash,
		MerkleRoot:   assignment.Job.MerkleRoot,
		Time:         assignment.Job.Time,
		MaxTime:      assignment.Job.MaxTime,
		Bits:         assignment.Job.Bits,
		Origin:       s.origin,
	}, nil
}

// loggingSink just prints every forwarded solution.
type loggingSink struct {
	log *logx.Logger
}

func (s loggingSink) SubmitSolution(sol job.Solution) {
	s.log.Printf("solution: nonce=%#08x midstate=%d", sol.Backend.Nonce, sol.Backend.MidstateIdx)
}
