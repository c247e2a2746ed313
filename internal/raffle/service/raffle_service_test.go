package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tombola/internal/collectible"
	"tombola/internal/events"
	"tombola/internal/randomness"
	"tombola/internal/raffle/models"
	"tombola/internal/raffle/store"
	"tombola/internal/treasury"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/requestcontext"
)

const testFee = domain.Amount(100)

type RaffleServiceSuite struct {
	suite.Suite
	bank     *treasury.Bank
	book     *collectible.Book
	archive  *store.Memory
	stream   *events.MemoryStore
	poolAcct domain.AccountID
	operator domain.AccountID
	service  *Service
}

func TestRaffleServiceSuite(t *testing.T) {
	suite.Run(t, new(RaffleServiceSuite))
}

func (s *RaffleServiceSuite) SetupTest() {
	s.poolAcct = domain.NewAccountID()
	s.operator = domain.NewAccountID()
	s.bank = treasury.NewBank(s.poolAcct)
	s.book = collectible.NewBook()
	s.archive = store.NewMemory()
	s.stream = events.NewMemoryStore()
	s.service = s.newService(s.testPolicy())
}

func (s *RaffleServiceSuite) testPolicy() Policy {
	return Policy{
		EntranceFee:      testFee,
		MinRoundDuration: time.Minute,
		PrizeShareBps:    8000,
		Operator:         s.operator,
	}
}

func (s *RaffleServiceSuite) newService(policy Policy) *Service {
	return New(policy, s.bank, randomness.New(), s.book, s.archive,
		WithLogger(discardLogger()),
		WithPublisher(s.stream),
	)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ctxFor authenticates the context as account.
func (s *RaffleServiceSuite) ctxFor(account domain.AccountID) context.Context {
	return requestcontext.WithAccountID(context.Background(), account)
}

// settleCtx moves the request time past the minimum round duration.
func (s *RaffleServiceSuite) settleCtx() context.Context {
	return requestcontext.WithTime(context.Background(), time.Now().Add(2*time.Minute))
}

// enterInto funds account with exactly one fee and enters it into svc.
func (s *RaffleServiceSuite) enterInto(svc *Service, account domain.AccountID) models.EntryReceipt {
	s.T().Helper()
	s.bank.Deposit(account, testFee)
	receipt, err := svc.Enter(s.ctxFor(account), []domain.AccountID{account}, testFee)
	s.Require().NoError(err)
	return receipt
}

func (s *RaffleServiceSuite) enterOne(account domain.AccountID) models.EntryReceipt {
	s.T().Helper()
	return s.enterInto(s.service, account)
}

// =============================================================================
// Enter
// =============================================================================

func (s *RaffleServiceSuite) TestEnter() {
	ctx := context.Background()

	s.Run("assigns sequential slots and collects the batch payment", func() {
		payer := domain.NewAccountID()
		second := domain.NewAccountID()
		s.bank.Deposit(payer, 200)

		receipt, err := s.service.Enter(s.ctxFor(payer), []domain.AccountID{payer, second}, 200)
		s.Require().NoError(err)
		s.Equal(uint64(1), receipt.Epoch)
		s.Equal([]int{0, 1}, receipt.Slots)

		s.Equal(2, s.service.OccupiedCount(ctx))
		s.Equal(domain.Amount(200), s.service.TotalCollected(ctx))
		s.Equal(domain.Amount(0), s.bank.Balance(payer))
		s.Equal(domain.Amount(200), s.bank.Balance(s.poolAcct))

		recorded := s.stream.ByAction(events.ActionEntryRecorded)
		s.Require().Len(recorded, 1)
		s.Equal(payer.String(), recorded[0].Account)
	})

	s.Run("rejects payment that mismatches the batch total", func() {
		account := domain.NewAccountID()
		s.bank.Deposit(account, 500)
		before := s.service.OccupiedCount(ctx)

		_, err := s.service.Enter(s.ctxFor(account), []domain.AccountID{account}, testFee+1)
		s.True(dErrors.HasCode(err, dErrors.CodeBadPayment))
		s.Equal(before, s.service.OccupiedCount(ctx))
		s.Equal(domain.Amount(500), s.bank.Balance(account))
	})

	s.Run("rejects in-batch duplicates without a partial append", func() {
		payer := domain.NewAccountID()
		other := domain.NewAccountID()
		s.bank.Deposit(payer, 300)
		before := s.service.OccupiedCount(ctx)

		_, err := s.service.Enter(s.ctxFor(payer), []domain.AccountID{other, payer, other}, testFee.Mul(3))
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateEntrant))
		s.Equal(before, s.service.OccupiedCount(ctx))
		s.Equal(domain.Amount(300), s.bank.Balance(payer))
	})

	s.Run("rejects an account already holding a slot", func() {
		account := domain.NewAccountID()
		s.enterOne(account)
		s.bank.Deposit(account, testFee)
		before := s.service.OccupiedCount(ctx)

		_, err := s.service.Enter(s.ctxFor(account), []domain.AccountID{account}, testFee)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateEntrant))
		s.Equal(before, s.service.OccupiedCount(ctx))
	})

	s.Run("rejects an empty batch", func() {
		account := domain.NewAccountID()
		_, err := s.service.Enter(s.ctxFor(account), nil, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("requires an authenticated caller", func() {
		_, err := s.service.Enter(ctx, []domain.AccountID{domain.NewAccountID()}, testFee)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects a payer who cannot cover the batch", func() {
		account := domain.NewAccountID()
		before := s.service.OccupiedCount(ctx)

		_, err := s.service.Enter(s.ctxFor(account), []domain.AccountID{account}, testFee)
		s.True(dErrors.HasCode(err, dErrors.CodeBadPayment))
		s.Equal(before, s.service.OccupiedCount(ctx))
	})
}

// =============================================================================
// ActiveIndexOf
// =============================================================================

func (s *RaffleServiceSuite) TestActiveIndexOf() {
	ctx := context.Background()
	first := domain.NewAccountID()
	absent := domain.NewAccountID()

	s.enterOne(first)

	s.Run("distinguishes slot zero from no slot", func() {
		idx, ok := s.service.ActiveIndexOf(ctx, first)
		s.True(ok)
		s.Equal(0, idx)

		_, ok = s.service.ActiveIndexOf(ctx, absent)
		s.False(ok)
	})

	s.Run("forgets the slot after a refund", func() {
		s.Require().NoError(s.service.Refund(s.ctxFor(first), 0))
		_, ok := s.service.ActiveIndexOf(ctx, first)
		s.False(ok)
	})
}

// =============================================================================
// Refund
// =============================================================================

func (s *RaffleServiceSuite) TestRefund() {
	ctx := context.Background()

	s.Run("vacates the slot in place and returns the fee", func() {
		a := domain.NewAccountID()
		b := domain.NewAccountID()
		s.enterOne(a)
		s.enterOne(b)

		s.Require().NoError(s.service.Refund(s.ctxFor(a), 0))

		s.Equal(1, s.service.OccupiedCount(ctx))
		s.Equal(testFee, s.service.TotalCollected(ctx))
		s.Equal(testFee, s.bank.Balance(a))

		// the vacancy does not shift later indices
		idx, ok := s.service.ActiveIndexOf(ctx, b)
		s.True(ok)
		s.Equal(1, idx)

		refunded := s.stream.ByAction(events.ActionRefunded)
		s.Require().Len(refunded, 1)
		s.Equal(a.String(), refunded[0].Account)
	})

	s.Run("re-entry after a refund takes a fresh slot index", func() {
		a := domain.NewAccountID()
		receipt := s.enterOne(a)
		oldIdx := receipt.Slots[0]
		s.Require().NoError(s.service.Refund(s.ctxFor(a), oldIdx))

		receipt = s.enterOne(a)
		s.Greater(receipt.Slots[0], oldIdx)
	})

	s.Run("rejects a caller who is not the occupant", func() {
		a := domain.NewAccountID()
		b := domain.NewAccountID()
		receipt := s.enterOne(a)

		err := s.service.Refund(s.ctxFor(b), receipt.Slots[0])
		s.True(dErrors.HasCode(err, dErrors.CodeNotOccupant))

		_, ok := s.service.ActiveIndexOf(ctx, a)
		s.True(ok)
	})

	s.Run("second refund of the same slot fails already vacant", func() {
		a := domain.NewAccountID()
		receipt := s.enterOne(a)
		idx := receipt.Slots[0]

		s.Require().NoError(s.service.Refund(s.ctxFor(a), idx))
		err := s.service.Refund(s.ctxFor(a), idx)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyVacant))
		s.Equal(testFee, s.bank.Balance(a))
	})

	s.Run("rejects an index that was never issued", func() {
		err := s.service.Refund(s.ctxFor(domain.NewAccountID()), 9999)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyVacant))
	})

	s.Run("requires an authenticated caller", func() {
		err := s.service.Refund(ctx, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("failed transfer restores the slot and the pool", func() {
		a := domain.NewAccountID()
		receipt := s.enterOne(a)
		idx := receipt.Slots[0]
		pool := s.service.TotalCollected(ctx)
		occupied := s.service.OccupiedCount(ctx)

		s.bank.RegisterPayoutHook(a, func(context.Context, domain.Amount) error {
			return errors.New("recipient rejected transfer")
		})

		err := s.service.Refund(s.ctxFor(a), idx)
		s.True(dErrors.HasCode(err, dErrors.CodeTransferFailed))

		s.Equal(pool, s.service.TotalCollected(ctx))
		s.Equal(occupied, s.service.OccupiedCount(ctx))
		got, ok := s.service.ActiveIndexOf(ctx, a)
		s.True(ok)
		s.Equal(idx, got)
		s.Equal(domain.Amount(0), s.bank.Balance(a))
	})
}

// =============================================================================
// Reentrancy during refund payouts
// =============================================================================

func (s *RaffleServiceSuite) TestRefundReentrancy() {
	ctx := context.Background()

	s.Run("nested same-slot refund finds the slot already vacant", func() {
		a := domain.NewAccountID()
		receipt := s.enterOne(a)
		idx := receipt.Slots[0]

		var nestedErr error
		s.bank.RegisterPayoutHook(a, func(context.Context, domain.Amount) error {
			nestedErr = s.service.Refund(s.ctxFor(a), idx)
			return nil
		})

		s.Require().NoError(s.service.Refund(s.ctxFor(a), idx))

		s.True(dErrors.HasCode(nestedErr, dErrors.CodeAlreadyVacant))
		// exactly one transfer total
		s.Equal(testFee, s.bank.Balance(a))
		s.Equal(0, s.service.OccupiedCount(ctx))
	})

	s.Run("nested enter during a refund payout is turned away", func() {
		a := domain.NewAccountID()
		outsider := domain.NewAccountID()
		receipt := s.enterOne(a)
		s.bank.Deposit(outsider, testFee)

		var nestedErr error
		s.bank.RegisterPayoutHook(a, func(context.Context, domain.Amount) error {
			_, nestedErr = s.service.Enter(s.ctxFor(outsider), []domain.AccountID{outsider}, testFee)
			return nil
		})

		s.Require().NoError(s.service.Refund(s.ctxFor(a), receipt.Slots[0]))

		s.True(dErrors.HasCode(nestedErr, dErrors.CodeConflict))
		_, ok := s.service.ActiveIndexOf(ctx, outsider)
		s.False(ok)
	})

	s.Run("nested settlement during a refund payout is turned away", func() {
		a := domain.NewAccountID()
		receipt := s.enterOne(a)

		var nestedErr error
		s.bank.RegisterPayoutHook(a, func(context.Context, domain.Amount) error {
			_, nestedErr = s.service.Settle(s.settleCtx())
			return nil
		})

		s.Require().NoError(s.service.Refund(s.ctxFor(a), receipt.Slots[0]))
		s.True(dErrors.HasCode(nestedErr, dErrors.CodeConflict))
	})

	s.Run("nested refund of a different slot completes on its own", func() {
		a := domain.NewAccountID()
		b := domain.NewAccountID()
		receiptA := s.enterOne(a)
		receiptB := s.enterOne(b)

		var nestedErr error
		s.bank.RegisterPayoutHook(a, func(hctx context.Context, _ domain.Amount) error {
			nestedErr = s.service.Refund(s.ctxFor(b), receiptB.Slots[0])
			return nil
		})

		s.Require().NoError(s.service.Refund(s.ctxFor(a), receiptA.Slots[0]))
		s.Require().NoError(nestedErr)

		s.Equal(testFee, s.bank.Balance(a))
		s.Equal(testFee, s.bank.Balance(b))
		s.Equal(0, s.service.OccupiedCount(ctx))
		s.Equal(domain.Amount(0), s.service.TotalCollected(ctx))
	})
}

// =============================================================================
// Pool invariant
// =============================================================================

// TestPoolInvariant holds totalCollected == occupiedCount × entranceFee after
// every operation, successful or failed.
func (s *RaffleServiceSuite) TestPoolInvariant() {
	ctx := context.Background()
	check := func() {
		s.T().Helper()
		s.Equal(testFee.Mul(s.service.OccupiedCount(ctx)), s.service.TotalCollected(ctx))
	}

	a := domain.NewAccountID()
	b := domain.NewAccountID()
	c := domain.NewAccountID()

	check()
	s.enterOne(a)
	check()
	s.enterOne(b)
	check()

	s.bank.Deposit(a, testFee)
	_, err := s.service.Enter(s.ctxFor(a), []domain.AccountID{a}, testFee)
	s.Error(err)
	check()

	s.bank.Deposit(c, testFee)
	_, err = s.service.Enter(s.ctxFor(c), []domain.AccountID{c}, testFee-1)
	s.Error(err)
	check()

	s.Require().NoError(s.service.Refund(s.ctxFor(a), 0))
	check()

	s.Error(s.service.Refund(s.ctxFor(a), 0))
	check()

	s.enterOne(c)
	check()
}
