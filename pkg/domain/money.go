package domain

import "fmt"

// Amount is a quantity of host-ledger currency in indivisible base units.
// All arithmetic is integer arithmetic; there is no fractional unit.
type Amount int64

// Mul returns the amount multiplied by a non-negative count.
func (a Amount) Mul(n int) Amount { return a * Amount(n) }

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

func (a Amount) String() string { return fmt.Sprintf("%d", int64(a)) }

// SplitBps divides the amount into a share of bps basis points and the
// remainder. The remainder absorbs integer truncation so the two parts
// always sum to the original amount.
func (a Amount) SplitBps(bps int64) (share, rest Amount) {
	share = Amount(int64(a) * bps / 10_000)
	return share, a - share
}
