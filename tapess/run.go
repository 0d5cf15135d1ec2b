package tapess

import (
	"context"
	"encoding/json"
	"io"

	"github.com/jmoiron/sqlx"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.brendoncarroll.net/tai64"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tapeweb.org/tape"
	"tapeweb.org/tape/internal/ringbuf"
	"tapeweb.org/tape/tapeop"
	"tapeweb.org/tape/tapess/internal/dbutil"
	"tapeweb.org/tape/tvm1"
)

const (
	// TailSize is the number of input and output bytes kept in a run record.
	TailSize = 4096

	// stepsPerCheck is how many instructions run between checks of the context.
	stepsPerCheck = 1 << 16
)

type RunConfig struct {
	TapeSize int `json:"tape_size" toml:"tape_size"`
	// MaxSteps limits the number of instructions executed. 0 is no limit.
	MaxSteps uint64 `json:"max_steps,omitempty" toml:"max_steps"`
}

func DefaultRunConfig() RunConfig {
	return RunConfig{TapeSize: tape.DefaultTapeSize}
}

func (c RunConfig) withDefaults() RunConfig {
	if c.TapeSize <= 0 {
		c.TapeSize = tape.DefaultTapeSize
	}
	return c
}

// RunInfo is the record of a single run.
// Input and Output hold at most the last TailSize bytes.
type RunInfo struct {
	ID        int64
	ProgramID tape.CID
	Config    RunConfig
	Input     []byte
	Output    []byte
	Steps     uint64
	// Error is the fault which stopped the machine, or empty.
	Error string

	TAISeconds uint64
	TAINanos   uint32
}

func (ri *RunInfo) OK() bool {
	return ri.Error == ""
}

// Exec runs prog on a fresh machine configured by cfg.
// The returned error is the fault which stopped the machine.
// The RunInfo is returned in either case, without an ID or ProgramID.
func Exec(ctx context.Context, prog tapeop.Program, in io.Reader, out io.Writer, cfg RunConfig) (*RunInfo, error) {
	cfg = cfg.withDefaults()
	inTail := ringbuf.New[byte](TailSize)
	outTail := ringbuf.New[byte](TailSize)
	ports := tvm1.Ports(in, out)
	vm := tvm1.New(cfg.TapeSize, tvm1.PortBackend{
		Input: func(ctx context.Context) (byte, error) {
			if ports.Input == nil {
				return 0, io.EOF
			}
			b, err := ports.Input(ctx)
			if err == nil {
				inTail.PushBack(b)
			}
			return b, err
		},
		Output: func(ctx context.Context, b byte) error {
			outTail.PushBack(b)
			if ports.Output == nil {
				return nil
			}
			return ports.Output(ctx, b)
		},
	})
	vm.SetProg(prog)
	ts := tai64.Now()
	fault := drive(ctx, vm, cfg.MaxSteps)
	info := &RunInfo{
		Config: cfg,
		Input:  inTail.AppendTo(nil),
		Output: outTail.AppendTo(nil),
		Steps:  vm.Steps(),

		TAISeconds: uint64(ts.Seconds),
		TAINanos:   uint32(ts.Nanoseconds),
	}
	if fault != nil {
		info.Error = fault.Error()
	}
	return info, fault
}

func drive(ctx context.Context, vm *tvm1.VM, maxSteps uint64) error {
	for !vm.Halted() {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		n := uint64(stepsPerCheck)
		if maxSteps > 0 {
			remaining := maxSteps - vm.Steps()
			if remaining == 0 {
				return ErrStepLimit{Steps: maxSteps}
			}
			n = min(n, remaining)
		}
		vm.Run(ctx, n)
	}
	return vm.Err()
}

// Run executes a stored program and records the run.
// If the machine faults, the RunInfo is returned along with the fault.
// A nil RunInfo means the run could not be started or recorded.
// Runs stopped by ctx are still recorded.
func (s *System) Run(ctx context.Context, cid tape.CID, in io.Reader, out io.Writer, cfg RunConfig) (*RunInfo, error) {
	prog, err := s.Get(ctx, cid)
	if err != nil {
		return nil, err
	}
	logctx.Info(ctx, "run started", zap.Stringer("program", cid), zap.Int("tape", cfg.withDefaults().TapeSize))
	info, fault := Exec(ctx, prog, in, out, cfg)
	info.ProgramID = cid
	if err := s.record(context.WithoutCancel(ctx), info); err != nil {
		return nil, err
	}
	if fault != nil {
		logctx.Error(ctx, "run faulted", zap.Stringer("program", cid), zap.Uint64("steps", info.Steps), zap.Error(fault))
	} else {
		logctx.Info(ctx, "run complete", zap.Stringer("program", cid), zap.Uint64("steps", info.Steps))
	}
	return info, fault
}

// RunAll runs each program concurrently, with no input, and returns the records in the same order.
// Faults are recorded in each RunInfo, only failures to run or record are returned.
func (s *System) RunAll(ctx context.Context, cids []tape.CID, cfg RunConfig) ([]RunInfo, error) {
	ret := make([]RunInfo, len(cids))
	eg, ctx := errgroup.WithContext(ctx)
	for i, cid := range cids {
		eg.Go(func() error {
			info, err := s.Run(ctx, cid, nil, nil, cfg)
			if info == nil {
				return err
			}
			ret[i] = *info
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}

type runRow struct {
	ID        int64    `db:"id"`
	ProgramID tape.CID `db:"program_id"`
	Config    []byte   `db:"config"`
	Input     []byte   `db:"input"`
	Output    []byte   `db:"output"`
	Steps     int64    `db:"steps"`
	Error     string   `db:"error"`
	TAISec    int64    `db:"tai_sec"`
	TAINano   int64    `db:"tai_nano"`
}

func (r runRow) toInfo() (RunInfo, error) {
	var cfg RunConfig
	if err := json.Unmarshal(r.Config, &cfg); err != nil {
		return RunInfo{}, err
	}
	return RunInfo{
		ID:         r.ID,
		ProgramID:  r.ProgramID,
		Config:     cfg,
		Input:      r.Input,
		Output:     r.Output,
		Steps:      uint64(r.Steps),
		Error:      r.Error,
		TAISeconds: uint64(r.TAISec),
		TAINanos:   uint32(r.TAINano),
	}, nil
}

func (s *System) record(ctx context.Context, info *RunInfo) error {
	cfgData, err := json.Marshal(info.Config)
	if err != nil {
		return err
	}
	id, err := dbutil.DoTx1(ctx, s.db, func(tx *sqlx.Tx) (int64, error) {
		var id int64
		err := tx.GetContext(ctx, &id, `INSERT INTO runs (program_id, config, input, output, steps, error, tai_sec, tai_nano)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			info.ProgramID[:], string(cfgData), nonNil(info.Input), nonNil(info.Output),
			int64(info.Steps), info.Error, int64(info.TAISeconds), int64(info.TAINanos))
		return id, err
	})
	if err != nil {
		return err
	}
	info.ID = id
	return nil
}

// Runs returns the records of every run of a program, oldest first.
func (s *System) Runs(ctx context.Context, cid tape.CID) ([]RunInfo, error) {
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, program_id, config, input, output, steps, error, tai_sec, tai_nano
		FROM runs WHERE program_id = ? ORDER BY id`, cid[:]); err != nil {
		return nil, err
	}
	ret := make([]RunInfo, 0, len(rows))
	for _, row := range rows {
		info, err := row.toInfo()
		if err != nil {
			return nil, err
		}
		ret = append(ret, info)
	}
	return ret, nil
}

func nonNil(x []byte) []byte {
	if x == nil {
		return []byte{}
	}
	return x
}
