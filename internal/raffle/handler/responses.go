package handler

import (
	"time"

	"tombola/internal/collectible"
	"tombola/internal/events"
	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
)

// StatusResponse is the body of GET /raffle.
type StatusResponse struct {
	State            string    `json:"state"`
	Epoch            uint64    `json:"epoch"`
	EntranceFee      int64     `json:"entrance_fee"`
	OccupiedCount    int       `json:"occupied_count"`
	TotalCollected   int64     `json:"total_collected"`
	OpenedAt         time.Time `json:"opened_at"`
	SettleEligibleAt time.Time `json:"settle_eligible_at"`
	PreviousWinner   string    `json:"previous_winner,omitempty"`
	PreviousRarity   string    `json:"previous_rarity,omitempty"`
}

// FromStatus converts the domain status to its HTTP shape.
func FromStatus(s models.Status) StatusResponse {
	resp := StatusResponse{
		State:            string(s.State),
		Epoch:            s.Epoch,
		EntranceFee:      int64(s.EntranceFee),
		OccupiedCount:    s.OccupiedCount,
		TotalCollected:   int64(s.TotalCollected),
		OpenedAt:         s.OpenedAt,
		SettleEligibleAt: s.SettleEligibleAt,
	}
	if !s.PreviousWinner.IsNil() {
		resp.PreviousWinner = s.PreviousWinner.String()
		resp.PreviousRarity = string(s.PreviousRarity)
	}
	return resp
}

// EntryResponse is the body of a successful POST /raffle/entries.
type EntryResponse struct {
	Epoch uint64 `json:"epoch"`
	Slots []int  `json:"slots"`
}

// FromReceipt converts an entry receipt to its HTTP shape.
func FromReceipt(r models.EntryReceipt) EntryResponse {
	return EntryResponse{Epoch: r.Epoch, Slots: r.Slots}
}

// RefundResponse is the body of a successful refund.
type RefundResponse struct {
	Slot     int  `json:"slot"`
	Refunded bool `json:"refunded"`
}

// EntrantResponse is the body of GET /raffle/entrants/{account}.
type EntrantResponse struct {
	Account string `json:"account"`
	Slot    int    `json:"slot"`
}

// SettlementResponse is the body of a successful POST /raffle/settlement.
type SettlementResponse struct {
	Epoch         uint64    `json:"epoch"`
	Winner        string    `json:"winner"`
	WinnerSlot    int       `json:"winner_slot"`
	Rarity        string    `json:"rarity"`
	Prize         int64     `json:"prize"`
	OperatorShare int64     `json:"operator_share"`
	Token         string    `json:"token"`
	EntrantCount  int       `json:"entrant_count"`
	SettledAt     time.Time `json:"settled_at"`
}

// FromOutcome converts a settlement outcome to its HTTP shape.
func FromOutcome(o models.SettlementOutcome) SettlementResponse {
	return SettlementResponse{
		Epoch:         o.Epoch,
		Winner:        o.Winner.String(),
		WinnerSlot:    o.WinnerSlot,
		Rarity:        string(o.Rarity),
		Prize:         int64(o.Prize),
		OperatorShare: int64(o.OperatorShare),
		Token:         o.Token.String(),
		EntrantCount:  o.EntrantCount,
		SettledAt:     o.SettledAt,
	}
}

// EpochResponse is one archived epoch in GET /raffle/history.
type EpochResponse struct {
	Epoch         uint64    `json:"epoch"`
	Winner        string    `json:"winner"`
	WinnerSlot    int       `json:"winner_slot"`
	Rarity        string    `json:"rarity"`
	Prize         int64     `json:"prize"`
	OperatorShare int64     `json:"operator_share"`
	Token         string    `json:"token"`
	EntrantCount  int       `json:"entrant_count"`
	SeedDigest    string    `json:"seed_digest"`
	SettledAt     time.Time `json:"settled_at"`
}

// HistoryResponse is the body of GET /raffle/history.
type HistoryResponse struct {
	Epochs []EpochResponse `json:"epochs"`
}

// FromRecords converts archived epochs to their HTTP shape.
func FromRecords(records []models.EpochRecord) HistoryResponse {
	resp := HistoryResponse{Epochs: make([]EpochResponse, 0, len(records))}
	for _, rec := range records {
		resp.Epochs = append(resp.Epochs, EpochResponse{
			Epoch:         rec.Epoch,
			Winner:        rec.Winner.String(),
			WinnerSlot:    rec.WinnerSlot,
			Rarity:        string(rec.Rarity),
			Prize:         int64(rec.Prize),
			OperatorShare: int64(rec.OperatorShare),
			Token:         rec.Token.String(),
			EntrantCount:  rec.EntrantCount,
			SeedDigest:    rec.SeedDigest,
			SettledAt:     rec.SettledAt,
		})
	}
	return resp
}

// EventResponse is one emitted event in GET /raffle/events.
type EventResponse struct {
	ID         string            `json:"id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Action     string            `json:"action"`
	Category   string            `json:"category"`
	Epoch      uint64            `json:"epoch"`
	Account    string            `json:"account,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// EventsResponse is the body of GET /raffle/events.
type EventsResponse struct {
	Events []EventResponse `json:"events"`
}

// FromEvents converts logged events to their HTTP shape.
func FromEvents(list []events.Event) EventsResponse {
	resp := EventsResponse{Events: make([]EventResponse, 0, len(list))}
	for _, e := range list {
		resp.Events = append(resp.Events, EventResponse{
			ID:         e.ID.String(),
			OccurredAt: e.OccurredAt,
			Action:     string(e.Action),
			Category:   string(e.Category),
			Epoch:      e.Epoch,
			Account:    e.Account,
			Metadata:   e.Metadata,
		})
	}
	return resp
}

// CollectibleResponse is one owned token in GET /collectibles/{account}.
type CollectibleResponse struct {
	ID       string    `json:"id"`
	Rarity   string    `json:"rarity"`
	MintedAt time.Time `json:"minted_at"`
}

// CollectiblesResponse is the body of GET /collectibles/{account}.
type CollectiblesResponse struct {
	Account string                `json:"account"`
	Tokens  []CollectibleResponse `json:"tokens"`
}

// FromTokens converts a token listing to its HTTP shape.
func FromTokens(account domain.AccountID, tokens []collectible.Token) CollectiblesResponse {
	resp := CollectiblesResponse{
		Account: account.String(),
		Tokens:  make([]CollectibleResponse, 0, len(tokens)),
	}
	for _, token := range tokens {
		resp.Tokens = append(resp.Tokens, CollectibleResponse{
			ID:       token.ID.String(),
			Rarity:   string(token.Rarity),
			MintedAt: token.MintedAt,
		})
	}
	return resp
}

// TokenResponse is the body of POST /auth/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
