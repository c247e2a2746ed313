package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tombola/internal/events"
	"tombola/internal/raffle/models"
	"tombola/internal/raffle/selector"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/sentinel"
	"tombola/pkg/requestcontext"
)

// Enter claims one slot per account in the batch. The authenticated caller
// pays for the whole batch: payment must equal the entrance fee times the
// batch size and is collected before any slot is assigned. On any precondition
// failure nothing changes, including a duplicate anywhere in the batch.
func (s *Service) Enter(ctx context.Context, accounts []domain.AccountID, payment domain.Amount) (models.EntryReceipt, error) {
	ctx, span := tracer.Start(ctx, "raffle.enter",
		trace.WithAttributes(attribute.Int("raffle.batch_size", len(accounts))))
	defer span.End()

	payer := requestcontext.AccountID(ctx)
	if payer.IsNil() {
		return models.EntryReceipt{}, dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.depth > 0 {
		return models.EntryReceipt{}, errBusy()
	}
	if len(accounts) == 0 {
		return models.EntryReceipt{}, dErrors.New(dErrors.CodeInvalidInput, "entry batch must not be empty")
	}
	if want := s.policy.EntranceFee.Mul(len(accounts)); payment != want {
		return models.EntryReceipt{}, dErrors.New(dErrors.CodeBadPayment, "payment must equal entrance fee times batch size")
	}

	// Reject the whole batch before touching anything: nil accounts,
	// in-batch duplicates, and accounts already holding a slot this epoch.
	seen := make(map[domain.AccountID]struct{}, len(accounts))
	for _, account := range accounts {
		if account.IsNil() {
			return models.EntryReceipt{}, dErrors.New(dErrors.CodeInvalidInput, "account must not be nil")
		}
		if _, dup := seen[account]; dup {
			return models.EntryReceipt{}, dErrors.New(dErrors.CodeDuplicateEntrant, "duplicate account in batch")
		}
		seen[account] = struct{}{}
		if _, held := s.registry.ActiveIndexOf(account); held {
			return models.EntryReceipt{}, dErrors.New(dErrors.CodeDuplicateEntrant, "account already holds a slot this epoch")
		}
	}

	// The host ledger runs no payer-controlled code during Collect, so the
	// lock stays held across it.
	if err := s.treasury.Collect(ctx, payer, payment); err != nil {
		span.RecordError(err)
		if errors.Is(err, sentinel.ErrInsufficientFunds) {
			return models.EntryReceipt{}, dErrors.Wrap(err, dErrors.CodeBadPayment, "payment could not be collected")
		}
		return models.EntryReceipt{}, dErrors.Wrap(err, dErrors.CodeTransferFailed, "payment could not be collected")
	}

	now := requestcontext.Now(ctx)
	slots := make([]int, 0, len(accounts))
	for _, account := range accounts {
		idx, err := s.registry.Enter(account, now)
		if err != nil {
			// Unreachable: the batch was validated under this same lock.
			return models.EntryReceipt{}, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "registry rejected a validated entry")
		}
		slots = append(slots, idx)
		s.metrics.IncrementEntries()
	}
	s.pool.Add(payment)
	s.metrics.SetRoundState(int64(s.pool.Total()), s.registry.OccupiedCount())

	receipt := models.EntryReceipt{Epoch: s.registry.Epoch(), Slots: slots}
	s.emit(ctx, events.ActionEntryRecorded, receipt.Epoch, payer.String(), map[string]string{
		"slots":   formatSlots(slots),
		"payment": payment.String(),
	})
	s.logger.InfoContext(ctx, "entries recorded",
		"epoch", receipt.Epoch, "slots", len(slots), "payment", payment.String())
	return receipt, nil
}

// Refund vacates the caller's slot and returns the entrance fee. The slot is
// vacated and the pool debited before the transfer goes out, so a recipient
// re-invoking Refund for the same slot during the payout finds it already
// vacant. A failed payout restores the slot and the pool untouched by any
// transfer.
func (s *Service) Refund(ctx context.Context, slotIndex int) error {
	ctx, span := tracer.Start(ctx, "raffle.refund",
		trace.WithAttributes(attribute.Int("raffle.slot", slotIndex)))
	defer span.End()

	caller := requestcontext.AccountID(ctx)
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}

	s.mu.Lock()

	slot, err := s.registry.Vacate(slotIndex, caller)
	if err != nil {
		s.mu.Unlock()
		span.RecordError(err)
		return err
	}
	fee := s.policy.EntranceFee
	if err := s.pool.Subtract(fee); err != nil {
		// Pool and registry disagree; put the slot back and fail loudly.
		if restoreErr := s.registry.Restore(slot); restoreErr != nil {
			s.logger.ErrorContext(ctx, "refund rollback failed", "slot", slotIndex, "error", restoreErr)
		}
		s.mu.Unlock()
		span.RecordError(err)
		return err
	}
	epoch := s.registry.Epoch()
	s.metrics.SetRoundState(int64(s.pool.Total()), s.registry.OccupiedCount())

	s.depth++
	s.mu.Unlock()

	payErr := s.treasury.Payout(ctx, caller, fee)

	s.mu.Lock()
	s.depth--
	if payErr != nil {
		// The transfer never happened; undo the vacancy and the debit.
		s.pool.Add(fee)
		if restoreErr := s.registry.Restore(slot); restoreErr != nil {
			s.logger.ErrorContext(ctx, "refund rollback failed", "slot", slotIndex, "error", restoreErr)
		}
		s.metrics.SetRoundState(int64(s.pool.Total()), s.registry.OccupiedCount())
		s.mu.Unlock()
		span.RecordError(payErr)
		return dErrors.Wrap(payErr, dErrors.CodeTransferFailed, "refund transfer failed")
	}
	s.metrics.IncrementRefunds()
	s.mu.Unlock()

	s.emit(ctx, events.ActionRefunded, epoch, caller.String(), map[string]string{
		"slot": strconv.Itoa(slotIndex),
	})
	s.logger.InfoContext(ctx, "slot refunded", "epoch", epoch, "slot", slotIndex)
	return nil
}

// Settle draws the winner for the current epoch, splits the pot, mints the
// collectible and opens the next epoch. Registry, pool, epoch counter and
// previous-winner bookkeeping are fully advanced before any payout goes out;
// if a payout or the mint fails, completed payouts are reclaimed and the
// epoch restored, so a retry starts from exactly the pre-settlement state.
func (s *Service) Settle(ctx context.Context) (models.SettlementOutcome, error) {
	ctx, span := tracer.Start(ctx, "raffle.settle")
	defer span.End()
	started := time.Now()

	s.mu.Lock()

	if s.depth > 0 {
		s.mu.Unlock()
		return models.SettlementOutcome{}, errBusy()
	}

	now := requestcontext.Now(ctx)
	if s.registry.OccupiedCount() == 0 {
		s.mu.Unlock()
		return models.SettlementOutcome{}, dErrors.New(dErrors.CodeNoEntrants, "no occupied slots this epoch")
	}
	if now.Sub(s.openedAt) < s.policy.MinRoundDuration {
		s.mu.Unlock()
		return models.SettlementOutcome{}, dErrors.New(dErrors.CodeNotReady, "minimum round duration has not elapsed")
	}

	s.state = models.StateSettling

	// The seed must never be substituted: a failure aborts the attempt with
	// zero state change. The source does not call back into the raffle.
	seed, err := s.random.Seed(ctx)
	if err != nil {
		s.state = models.StateOpen
		s.mu.Unlock()
		span.RecordError(err)
		s.metrics.IncrementSettlements("randomness_unavailable")
		return models.SettlementOutcome{}, dErrors.Wrap(err, dErrors.CodeRandomnessUnavailable, "randomness source failed")
	}

	occupied := s.registry.OccupiedSlots()
	result, err := selector.Pick(occupied, seed)
	if err != nil {
		s.state = models.StateOpen
		s.mu.Unlock()
		span.RecordError(err)
		return models.SettlementOutcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "winner selection failed")
	}

	epoch := s.registry.Epoch()
	winner := result.Winner.Occupant
	pot := s.pool.Total()
	prize, operatorShare := pot.SplitBps(s.policy.PrizeShareBps)

	span.SetAttributes(
		attribute.Int64("raffle.epoch", int64(epoch)),
		attribute.Int("raffle.entrants", len(occupied)),
	)

	// Snapshot everything the bookkeeping below destroys.
	snapshot := s.registry.Snapshot()
	savedOpenedAt := s.openedAt
	savedWinner, savedRarity := s.prevWinner, s.prevRarity

	// Effects before interactions: by the time any payout can hand control
	// to the winner, the settled epoch is gone and the next one is open.
	s.prevWinner = winner
	s.prevRarity = result.Rarity
	s.registry.Advance()
	s.pool.Drain()
	s.openedAt = now
	s.state = models.StateOpen
	s.metrics.SetRoundState(0, 0)

	s.depth++
	s.mu.Unlock()

	fail := func(cause error, code dErrors.Code, msg string, reclaimWinner, reclaimOperator bool) (models.SettlementOutcome, error) {
		if reclaimWinner {
			if err := s.treasury.Reclaim(ctx, winner, prize); err != nil {
				s.logger.ErrorContext(ctx, "settlement reclaim failed", "account", winner.String(), "error", err)
			}
		}
		if reclaimOperator {
			if err := s.treasury.Reclaim(ctx, s.policy.Operator, operatorShare); err != nil {
				s.logger.ErrorContext(ctx, "settlement reclaim failed", "account", s.policy.Operator.String(), "error", err)
			}
		}

		s.mu.Lock()
		s.depth--
		s.registry.RestoreSnapshot(snapshot)
		s.pool.Restore(pot)
		s.openedAt = savedOpenedAt
		s.prevWinner, s.prevRarity = savedWinner, savedRarity
		s.metrics.SetRoundState(int64(pot), len(occupied))
		s.mu.Unlock()

		s.metrics.IncrementSettlements(string(code))
		s.emit(ctx, events.ActionSettlementFailed, epoch, winner.String(), map[string]string{
			"reason": string(code),
		})
		s.logger.WarnContext(ctx, "settlement rolled back", "epoch", epoch, "reason", string(code), "error", cause)
		span.RecordError(cause)
		return models.SettlementOutcome{}, dErrors.Wrap(cause, code, msg)
	}

	if err := s.treasury.Payout(ctx, winner, prize); err != nil {
		return fail(err, dErrors.CodeTransferFailed, "prize transfer failed", false, false)
	}
	if err := s.treasury.Payout(ctx, s.policy.Operator, operatorShare); err != nil {
		return fail(err, dErrors.CodeTransferFailed, "operator transfer failed", true, false)
	}
	token, err := s.minter.Mint(ctx, winner, result.Rarity)
	if err != nil {
		return fail(err, dErrors.CodeMintFailed, "collectible mint failed", true, true)
	}

	s.mu.Lock()
	s.depth--
	s.mu.Unlock()

	outcome := models.SettlementOutcome{
		Epoch:         epoch,
		Winner:        winner,
		WinnerSlot:    result.SlotIndex,
		Rarity:        result.Rarity,
		Prize:         prize,
		OperatorShare: operatorShare,
		Token:         token,
		EntrantCount:  len(occupied),
		SettledAt:     now,
	}

	// Custody is final once the transfers are out; a failed archive write is
	// an operational alert, not a rollback trigger.
	record := models.EpochRecord{
		Epoch:         outcome.Epoch,
		Winner:        outcome.Winner,
		WinnerSlot:    outcome.WinnerSlot,
		Rarity:        outcome.Rarity,
		Prize:         outcome.Prize,
		OperatorShare: outcome.OperatorShare,
		Token:         outcome.Token,
		EntrantCount:  outcome.EntrantCount,
		SeedDigest:    selector.SeedDigest(seed),
		SettledAt:     outcome.SettledAt,
	}
	if err := s.archive.Append(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "archive settled epoch", "epoch", epoch, "error", err)
	}

	s.metrics.IncrementSettlements("settled")
	s.metrics.IncrementRarity(string(result.Rarity))
	s.metrics.ObserveSettleLatency(time.Since(started))
	s.emit(ctx, events.ActionWinnerSelected, epoch, winner.String(), map[string]string{
		"rarity": string(result.Rarity),
		"prize":  prize.String(),
		"slot":   strconv.Itoa(result.SlotIndex),
		"token":  token.String(),
	})
	s.logger.InfoContext(ctx, "epoch settled",
		"epoch", epoch, "winner", winner.String(), "rarity", string(result.Rarity), "prize", prize.String())
	return outcome, nil
}

// Status reports the externally observable round state. Settlement advances
// the epoch under the mutex before any transfer goes out, so observers never
// see an intermediate lifecycle state.
func (s *Service) Status(ctx context.Context) models.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.Status{
		State:            s.state,
		Epoch:            s.registry.Epoch(),
		EntranceFee:      s.policy.EntranceFee,
		OccupiedCount:    s.registry.OccupiedCount(),
		TotalCollected:   s.pool.Total(),
		OpenedAt:         s.openedAt,
		SettleEligibleAt: s.openedAt.Add(s.policy.MinRoundDuration),
		PreviousWinner:   s.prevWinner,
		PreviousRarity:   s.prevRarity,
	}
}

// ActiveIndexOf reports the slot held by account in the current epoch. The
// boolean distinguishes "holds slot 0" from "holds no slot".
func (s *Service) ActiveIndexOf(ctx context.Context, account domain.AccountID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.ActiveIndexOf(account)
}

// TotalCollected returns the pool attributed to the current epoch.
func (s *Service) TotalCollected(ctx context.Context) domain.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Total()
}

// OccupiedCount returns the number of occupied slots in the current epoch.
func (s *Service) OccupiedCount(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.OccupiedCount()
}

// History returns recently settled epochs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]models.EpochRecord, error) {
	records, err := s.archive.List(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list settled epochs")
	}
	return records, nil
}

func formatSlots(slots []int) string {
	parts := make([]string, len(slots))
	for i, idx := range slots {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}
