// Package memory derives the per-node executor memory budget.
package memory

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/vk/clustergrid/internal/cluster"
)

var (
	mibPerGiB   = decimal.NewFromInt(1024)
	reservedMiB = decimal.NewFromInt(cluster.OSReservationMiB)
)

// InsufficientResourceError is returned when the budget would be zero or
// negative. Exactly one of RAMGiB or ExplicitMiB is set, depending on the
// source that produced the budget.
type InsufficientResourceError struct {
	RAMGiB      *float64
	ExplicitMiB *float64
	BudgetMiB   int64
}

func (e *InsufficientResourceError) Error() string {
	if e.RAMGiB != nil {
		return fmt.Sprintf("machine with %v GiB RAM leaves %d MiB after the %d MiB OS reservation",
			*e.RAMGiB, e.BudgetMiB, cluster.OSReservationMiB)
	}
	if e.ExplicitMiB != nil {
		return fmt.Sprintf("explicit memory of %v MiB rounds to %d MiB", *e.ExplicitMiB, e.BudgetMiB)
	}
	return fmt.Sprintf("memory budget of %d MiB is not positive", e.BudgetMiB)
}

// Budget returns the executor memory in MiB. An explicit amount is rounded to
// the nearest integer. A machine descriptor gives its RAM minus the OS
// reservation. Without either the default executor memory is used.
//
// A machine must have RAMGiB filled in; resolving an instance type is done by
// the machine catalog beforehand.
func Budget(src cluster.MemorySource) (int64, error) {
	if err := checkRange(src); err != nil {
		return 0, err
	}
	switch {
	case src.ExplicitMiB != nil:
		mib := decimal.NewFromFloat(*src.ExplicitMiB).Round(0).IntPart()
		if mib <= 0 {
			v := *src.ExplicitMiB
			return 0, &InsufficientResourceError{ExplicitMiB: &v, BudgetMiB: mib}
		}
		return mib, nil

	case src.Machine != nil:
		if src.Machine.RAMGiB <= 0 && src.Machine.InstanceType != "" {
			return 0, fmt.Errorf("machine %q has no resolved RAM size", src.Machine.InstanceType)
		}
		mib := decimal.NewFromFloat(src.Machine.RAMGiB).
			Mul(mibPerGiB).
			Sub(reservedMiB).
			Round(0).
			IntPart()
		if mib <= 0 {
			v := src.Machine.RAMGiB
			return 0, &InsufficientResourceError{RAMGiB: &v, BudgetMiB: mib}
		}
		return mib, nil

	default:
		return cluster.DefaultExecutorMiB, nil
	}
}

// checkRange rejects amounts decimal cannot represent or whose budget would
// not fit an int64.
func checkRange(src cluster.MemorySource) error {
	bad := func(v, limit float64) bool {
		return math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit
	}
	if v := src.ExplicitMiB; v != nil && bad(*v, cluster.MaxMemoryMiB) {
		return &cluster.InvalidSpecError{Field: "memory", Reason: fmt.Sprintf("explicit amount %v MiB is out of range", *v)}
	}
	if m := src.Machine; m != nil && bad(m.RAMGiB, cluster.MaxMemoryMiB/1024) {
		return &cluster.InvalidSpecError{Field: "memory", Reason: fmt.Sprintf("machine RAM %v GiB is out of range", m.RAMGiB)}
	}
	return nil
}
