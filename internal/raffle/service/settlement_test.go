package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/mock/gomock"

	"tombola/internal/events"
	"tombola/internal/randomness"
	"tombola/internal/raffle/mocks"
	"tombola/internal/raffle/models"
	"tombola/internal/raffle/selector"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/requestcontext"
)

// =============================================================================
// Settlement gates
// =============================================================================

func (s *RaffleServiceSuite) TestSettleGates() {
	s.Run("fails no entrants on an empty round however late", func() {
		_, err := s.service.Settle(s.settleCtx())
		s.True(dErrors.HasCode(err, dErrors.CodeNoEntrants))
	})

	s.Run("reports no entrants even when also not ready", func() {
		_, err := s.service.Settle(context.Background())
		s.True(dErrors.HasCode(err, dErrors.CodeNoEntrants))
	})

	s.Run("fails not ready before the minimum duration", func() {
		s.enterOne(domain.NewAccountID())
		_, err := s.service.Settle(context.Background())
		s.True(dErrors.HasCode(err, dErrors.CodeNotReady))
	})

	s.Run("settles once the duration has elapsed", func() {
		outcome, err := s.service.Settle(s.settleCtx())
		s.Require().NoError(err)
		s.Equal(uint64(1), outcome.Epoch)
	})
}

// =============================================================================
// Happy path
// =============================================================================

func (s *RaffleServiceSuite) TestSettleDistributesPot() {
	ctx := context.Background()
	entrants := make([]domain.AccountID, 4)
	for i := range entrants {
		entrants[i] = domain.NewAccountID()
		s.enterOne(entrants[i])
	}
	s.Equal(4, s.service.OccupiedCount(ctx))
	s.Equal(testFee.Mul(4), s.service.TotalCollected(ctx))

	outcome, err := s.service.Settle(s.settleCtx())
	s.Require().NoError(err)

	s.Equal(uint64(1), outcome.Epoch)
	s.Contains(entrants, outcome.Winner)
	s.Equal(4, outcome.EntrantCount)
	s.Equal(domain.Amount(320), outcome.Prize)
	s.Equal(domain.Amount(80), outcome.OperatorShare)
	s.True(outcome.Rarity.Valid())
	s.False(outcome.Token.IsNil())

	// the pot left custody exactly once
	s.Equal(domain.Amount(320), s.bank.Balance(outcome.Winner))
	s.Equal(domain.Amount(80), s.bank.Balance(s.operator))
	s.Equal(domain.Amount(0), s.bank.Balance(s.poolAcct))

	tokens := s.book.ListByOwner(ctx, outcome.Winner)
	s.Require().Len(tokens, 1)
	s.Equal(outcome.Token, tokens[0].ID)
	s.Equal(outcome.Rarity, tokens[0].Rarity)

	status := s.service.Status(ctx)
	s.Equal(models.StateOpen, status.State)
	s.Equal(uint64(2), status.Epoch)
	s.Equal(0, status.OccupiedCount)
	s.Equal(domain.Amount(0), status.TotalCollected)
	s.Equal(outcome.Winner, status.PreviousWinner)
	s.Equal(outcome.Rarity, status.PreviousRarity)

	records, err := s.service.History(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(outcome.Winner, records[0].Winner)
	s.Equal(outcome.Token, records[0].Token)
	s.Len(records[0].SeedDigest, 64)

	selected := s.stream.ByAction(events.ActionWinnerSelected)
	s.Require().Len(selected, 1)
	s.Equal(outcome.Winner.String(), selected[0].Account)
	s.Equal(string(outcome.Rarity), selected[0].Metadata["rarity"])
	s.Equal("320", selected[0].Metadata["prize"])
	s.Equal(strconv.Itoa(outcome.WinnerSlot), selected[0].Metadata["slot"])
}

// TestSettleDeterministicRecord pins the settlement outcome to the pure draw:
// with a fixed seed the service must select exactly what the selector selects
// and archive the digest of that seed.
func (s *RaffleServiceSuite) TestSettleDeterministicRecord() {
	ctx := context.Background()
	seed := []byte("0123456789abcdef0123456789abcdef")

	ctrl := gomock.NewController(s.T())
	random := mocks.NewMockRandomnessSource(ctrl)
	random.EXPECT().Seed(gomock.Any()).Return(seed, nil)

	svc := New(s.testPolicy(), s.bank, random, s.book, s.archive, WithLogger(discardLogger()))

	entrants := make([]domain.AccountID, 3)
	slots := make([]models.Slot, 3)
	for i := range entrants {
		entrants[i] = domain.NewAccountID()
		s.enterInto(svc, entrants[i])
		slots[i] = models.Slot{Index: i, Occupant: entrants[i]}
	}

	expected, err := selector.Pick(slots, seed)
	s.Require().NoError(err)

	outcome, err := svc.Settle(s.settleCtx())
	s.Require().NoError(err)

	s.Equal(expected.Winner.Occupant, outcome.Winner)
	s.Equal(expected.SlotIndex, outcome.WinnerSlot)
	s.Equal(expected.Rarity, outcome.Rarity)

	records, err := svc.History(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(selector.SeedDigest(seed), records[0].SeedDigest)
}

// =============================================================================
// Rollback
// =============================================================================

func (s *RaffleServiceSuite) TestSettleOperatorTransferRollback() {
	ctx := context.Background()
	entrants := make([]domain.AccountID, 4)
	for i := range entrants {
		entrants[i] = domain.NewAccountID()
		s.enterOne(entrants[i])
	}

	var failures int
	s.bank.RegisterPayoutHook(s.operator, func(context.Context, domain.Amount) error {
		failures++
		if failures == 1 {
			return errors.New("operator wallet rejected transfer")
		}
		return nil
	})

	_, err := s.service.Settle(s.settleCtx())
	s.True(dErrors.HasCode(err, dErrors.CodeTransferFailed))

	// the epoch is exactly as it was before the attempt
	status := s.service.Status(ctx)
	s.Equal(uint64(1), status.Epoch)
	s.Equal(4, status.OccupiedCount)
	s.Equal(testFee.Mul(4), status.TotalCollected)
	s.True(status.PreviousWinner.IsNil())
	s.Equal(domain.Amount(400), s.bank.Balance(s.poolAcct))
	s.Equal(domain.Amount(0), s.bank.Balance(s.operator))
	for _, e := range entrants {
		s.Equal(domain.Amount(0), s.bank.Balance(e))
	}

	records, err := s.service.History(ctx, 10)
	s.Require().NoError(err)
	s.Empty(records)

	failed := s.stream.ByAction(events.ActionSettlementFailed)
	s.Require().Len(failed, 1)
	s.Equal("transfer_failed", failed[0].Metadata["reason"])

	// the same epoch settles cleanly on retry
	outcome, err := s.service.Settle(s.settleCtx())
	s.Require().NoError(err)
	s.Equal(uint64(1), outcome.Epoch)
	s.Equal(domain.Amount(320), s.bank.Balance(outcome.Winner))
	s.Equal(domain.Amount(80), s.bank.Balance(s.operator))
}

func (s *RaffleServiceSuite) TestSettlePrizeTransferRollback() {
	ctx := context.Background()
	entrants := make([]domain.AccountID, 3)
	for i := range entrants {
		entrants[i] = domain.NewAccountID()
		s.enterOne(entrants[i])
		s.bank.RegisterPayoutHook(entrants[i], func(context.Context, domain.Amount) error {
			return errors.New("wallet unreachable")
		})
	}

	before := s.service.Status(ctx)

	_, err := s.service.Settle(s.settleCtx())
	s.True(dErrors.HasCode(err, dErrors.CodeTransferFailed))

	s.Equal(before, s.service.Status(ctx))
	s.Equal(testFee.Mul(3), s.bank.Balance(s.poolAcct))

	records, err := s.service.History(ctx, 10)
	s.Require().NoError(err)
	s.Empty(records)

	// with the wallets reachable again the retry completes
	for _, e := range entrants {
		s.bank.RegisterPayoutHook(e, nil)
	}
	outcome, err := s.service.Settle(s.settleCtx())
	s.Require().NoError(err)
	s.Equal(uint64(1), outcome.Epoch)
}

func (s *RaffleServiceSuite) TestSettleMintRollback() {
	ctx := context.Background()

	ctrl := gomock.NewController(s.T())
	minter := mocks.NewMockCollectibleMinter(ctrl)
	gomock.InOrder(
		minter.EXPECT().Mint(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.TokenID{}, errors.New("mint backend down")),
		minter.EXPECT().Mint(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.NewTokenID(), nil),
	)

	svc := New(s.testPolicy(), s.bank, randomness.New(), minter, s.archive, WithLogger(discardLogger()))
	entrants := make([]domain.AccountID, 4)
	for i := range entrants {
		entrants[i] = domain.NewAccountID()
		s.enterInto(svc, entrants[i])
	}

	before := svc.Status(ctx)

	_, err := svc.Settle(s.settleCtx())
	s.True(dErrors.HasCode(err, dErrors.CodeMintFailed))

	// both payouts were reclaimed
	s.Equal(before, svc.Status(ctx))
	s.Equal(domain.Amount(400), s.bank.Balance(s.poolAcct))
	s.Equal(domain.Amount(0), s.bank.Balance(s.operator))
	for _, e := range entrants {
		s.Equal(domain.Amount(0), s.bank.Balance(e))
	}

	outcome, err := svc.Settle(s.settleCtx())
	s.Require().NoError(err)
	s.Equal(uint64(1), outcome.Epoch)
	s.Equal(domain.Amount(0), s.bank.Balance(s.poolAcct))
}

func (s *RaffleServiceSuite) TestSettleRandomnessFailure() {
	ctx := context.Background()

	ctrl := gomock.NewController(s.T())
	random := mocks.NewMockRandomnessSource(ctrl)
	random.EXPECT().Seed(gomock.Any()).Return(nil, errors.New("beacon offline"))

	svc := New(s.testPolicy(), s.bank, random, s.book, s.archive, WithLogger(discardLogger()))
	s.enterInto(svc, domain.NewAccountID())

	before := svc.Status(ctx)
	poolBefore := s.bank.Balance(s.poolAcct)

	_, err := svc.Settle(s.settleCtx())
	s.True(dErrors.HasCode(err, dErrors.CodeRandomnessUnavailable))

	s.Equal(before, svc.Status(ctx))
	s.Equal(poolBefore, s.bank.Balance(s.poolAcct))
}

// =============================================================================
// Reentrancy during settlement payouts
// =============================================================================

func (s *RaffleServiceSuite) TestSettleReentrancy() {
	ctx := context.Background()

	type probe struct {
		enterErr  error
		refundErr error
		settleErr error
	}

	// The winner is unknown before the draw, so every entrant gets a hook
	// that calls back in during the prize payout.
	entrants := make([]domain.AccountID, 3)
	results := make(map[domain.AccountID]*probe, 3)
	outsider := domain.NewAccountID()
	s.bank.Deposit(outsider, testFee)

	for i := range entrants {
		account := domain.NewAccountID()
		entrants[i] = account
		receipt := s.enterOne(account)
		slot := receipt.Slots[0]

		p := &probe{}
		results[account] = p
		s.bank.RegisterPayoutHook(account, func(context.Context, domain.Amount) error {
			_, p.enterErr = s.service.Enter(s.ctxFor(outsider), []domain.AccountID{outsider}, testFee)
			p.refundErr = s.service.Refund(s.ctxFor(account), slot)
			_, p.settleErr = s.service.Settle(s.settleCtx())
			return nil
		})
	}

	outcome, err := s.service.Settle(s.settleCtx())
	s.Require().NoError(err)

	p := results[outcome.Winner]
	s.Require().NotNil(p)
	s.True(dErrors.HasCode(p.enterErr, dErrors.CodeConflict))
	// the won epoch is already closed, its slots are gone
	s.True(dErrors.HasCode(p.refundErr, dErrors.CodeAlreadyVacant))
	s.True(dErrors.HasCode(p.settleErr, dErrors.CodeConflict))

	// the nested attempts left no trace
	s.Equal(0, s.service.OccupiedCount(ctx))
	_, ok := s.service.ActiveIndexOf(ctx, outsider)
	s.False(ok)
	s.Equal(uint64(2), s.service.Status(ctx).Epoch)
	s.Equal(testFee, s.bank.Balance(outsider))
}

// TestCrossEpochReentry settles a round and has the winner enter the next
// one, proving the duplicate index resets with the epoch.
func (s *RaffleServiceSuite) TestCrossEpochReentry() {
	a := domain.NewAccountID()
	s.enterOne(a)

	outcome, err := s.service.Settle(s.settleCtx())
	s.Require().NoError(err)
	s.Equal(a, outcome.Winner)

	receipt := s.enterOne(a)
	s.Equal(uint64(2), receipt.Epoch)
	s.Equal([]int{0}, receipt.Slots)
	s.Equal(1, s.service.OccupiedCount(context.Background()))
}

// =============================================================================
// History and status
// =============================================================================

func (s *RaffleServiceSuite) TestHistory() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s.enterOne(domain.NewAccountID())
		late := requestcontext.WithTime(ctx, time.Now().Add(time.Duration(i+1)*2*time.Minute))
		_, err := s.service.Settle(late)
		s.Require().NoError(err)
	}

	records, err := s.service.History(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal(uint64(3), records[0].Epoch)
	s.Equal(uint64(2), records[1].Epoch)
	s.Equal(uint64(1), records[2].Epoch)

	limited, err := s.service.History(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(limited, 2)
	s.Equal(uint64(3), limited[0].Epoch)
}

func (s *RaffleServiceSuite) TestStatus() {
	ctx := context.Background()

	status := s.service.Status(ctx)
	s.Equal(models.StateOpen, status.State)
	s.Equal(uint64(1), status.Epoch)
	s.Equal(testFee, status.EntranceFee)
	s.Equal(0, status.OccupiedCount)
	s.Equal(domain.Amount(0), status.TotalCollected)
	s.Equal(status.OpenedAt.Add(time.Minute), status.SettleEligibleAt)
	s.True(status.PreviousWinner.IsNil())

	s.enterOne(domain.NewAccountID())
	status = s.service.Status(ctx)
	s.Equal(1, status.OccupiedCount)
	s.Equal(testFee, status.TotalCollected)
}
