// Package audit walks every persisted Machine and checks the invariants
// the mint orchestrator is supposed to maintain but a storage-layer bug,
// a partial write, or manual SQL could still violate — the engine's
// retroactive counterpart to the per-mint gate checks in
// internal/orchestrator. Adapted from the teacher's historical block
// scanner: same "walk everything, track progress atomically, alert in
// real time on a finding" shape, repointed at Machine records instead
// of blocks.
package audit

import (
	"context"
	"errors"
	"log"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/rawblock/mint-engine/internal/configline"
	"github.com/rawblock/mint-engine/internal/store"
	"github.com/rawblock/mint-engine/pkg/models"
)

// ErrScanInProgress is returned by Scan when a prior scan has not finished.
var ErrScanInProgress = errors.New("audit: a scan is already running")

// Violation describes one Machine record that failed an invariant check.
type Violation struct {
	MachineID string `json:"machineId"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail"`
}

// Report is the result of one full scan pass.
type Report struct {
	JobID          string      `json:"jobId"`
	MachinesTotal  int64       `json:"machinesTotal"`
	MachinesOK     int64       `json:"machinesOk"`
	Violations     []Violation `json:"violations"`
}

// Progress is the scanner's current state, exposed for a status endpoint.
type Progress struct {
	IsRunning     bool  `json:"isRunning"`
	MachinesDone  int64 `json:"machinesDone"`
	Violations    int64 `json:"violations"`
}

// Scanner walks the Store once per Scan call. AlertFunc, if set, is
// called synchronously for every violation found, so a caller can wire
// it to the websocket hub for a real-time audit feed.
type Scanner struct {
	Store     store.Store
	AlertFunc func(Violation)

	done       atomic.Int64
	violations atomic.Int64
	running    atomic.Bool
}

func NewScanner(s store.Store) *Scanner {
	return &Scanner{Store: s}
}

// Progress returns a snapshot of the current (or most recent) scan.
func (sc *Scanner) Progress() Progress {
	return Progress{
		IsRunning:    sc.running.Load(),
		MachinesDone: sc.done.Load(),
		Violations:   sc.violations.Load(),
	}
}

// Scan walks every persisted Machine and checks its invariants,
// returning a report tagged with a fresh correlation ID.
func (sc *Scanner) Scan(ctx context.Context) (*Report, error) {
	if !sc.running.CompareAndSwap(false, true) {
		log.Println("[audit] scan already in progress, ignoring duplicate request")
		return nil, ErrScanInProgress
	}
	defer sc.running.Store(false)

	sc.done.Store(0)
	sc.violations.Store(0)

	ids, err := sc.Store.ListMachineIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		JobID:         uuid.NewString(),
		MachinesTotal: int64(len(ids)),
	}

	for _, id := range ids {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		m, suffix, err := sc.Store.GetMachine(ctx, id)
		if err != nil {
			sc.recordViolation(report, Violation{MachineID: id, Kind: "load_error", Detail: err.Error()})
			continue
		}

		violations := CheckInvariants(m, suffix)
		if len(violations) == 0 {
			report.MachinesOK++
		}
		for _, v := range violations {
			sc.recordViolation(report, v)
		}
		sc.done.Add(1)
	}

	log.Printf("[audit] scan %s complete: %d/%d machines clean, %d violations",
		report.JobID, report.MachinesOK, report.MachinesTotal, len(report.Violations))
	return report, nil
}

func (sc *Scanner) recordViolation(report *Report, v Violation) {
	report.Violations = append(report.Violations, v)
	sc.violations.Add(1)
	if sc.AlertFunc != nil {
		sc.AlertFunc(v)
	}
}

// CheckInvariants validates one Machine's persisted state against the
// invariants the orchestrator's gates are supposed to maintain.
func CheckInvariants(m *models.Machine, suffix *configline.Suffix) []Violation {
	var out []Violation

	if m.ItemsRedeemed > m.Data.ItemsAvailable {
		out = append(out, Violation{
			MachineID: m.ID,
			Kind:      "items_redeemed_overflow",
			Detail:    "itemsRedeemed exceeds itemsAvailable",
		})
	}

	if m.Data.HiddenSettings == nil {
		if suffix == nil {
			out = append(out, Violation{
				MachineID: m.ID,
				Kind:      "missing_suffix",
				Detail:    "non-hidden machine has no config-line suffix allocated",
			})
			return out
		}
		claimed := popcount(suffix.Bitmap)
		if claimed != m.ItemsRedeemed {
			out = append(out, Violation{
				MachineID: m.ID,
				Kind:      "bitmap_mismatch",
				Detail:    "claim bitmap popcount does not equal itemsRedeemed",
			})
		}
	}

	return out
}

func popcount(bitmap []byte) uint64 {
	var n uint64
	for _, b := range bitmap {
		for b != 0 {
			n += uint64(b & 1)
			b >>= 1
		}
	}
	return n
}
