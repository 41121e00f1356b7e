package domain

import (
	"context"
	"time"
)

type TierID string

const (
	TierFree       TierID = "free"
	TierPro        TierID = "pro"
	TierPremium    TierID = "premium"
	TierEnterprise TierID = "enterprise"
)

// Unlimited marks a limit that is never enforced.
const Unlimited = -1

// TierLimits are the usage limits attached to a tier.
type TierLimits struct {
	MessagesPerDay   int      `json:"messages_per_day"`
	MaxConversations int      `json:"max_conversations"`
	MaxMessageLength int      `json:"max_message_length"`
	Models           []string `json:"models"`
}

// AllowsModel reports whether model can be used on this tier.
// An empty model name means "the default model" and is always allowed.
func (l TierLimits) AllowsModel(model string) bool {
	if model == "" {
		return true
	}
	for _, m := range l.Models {
		if m == "*" || m == model {
			return true
		}
	}
	return false
}

// Tier is a named membership plan.
type Tier struct {
	ID                TierID     `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	PriceMonthlyCents int64      `json:"price_monthly_cents"`
	PriceYearlyCents  int64      `json:"price_yearly_cents"`
	Popular           bool       `json:"popular,omitempty"`
	Features          []string   `json:"features"`
	Limits            TierLimits `json:"limits"`
}

// PriceCents returns the price for one billing period.
func (t Tier) PriceCents(cycle BillingCycle) int64 {
	if cycle == BillingYearly {
		return t.PriceYearlyCents
	}
	return t.PriceMonthlyCents
}

// Purchasable reports whether the tier can be bought through the payment flow.
func (t Tier) Purchasable() bool {
	return t.ID != TierFree && t.PriceMonthlyCents > 0
}

var tierCatalog = []Tier{
	{
		ID:          TierFree,
		Name:        "Free",
		Description: "Try Beloop AI with everyday chat",
		Features: []string{
			"20 messages per day",
			"Up to 5 saved conversations",
			"Community support",
		},
		Limits: TierLimits{
			MessagesPerDay:   20,
			MaxConversations: 5,
			MaxMessageLength: 2000,
			Models:           []string{"gemini-2.0-flash"},
		},
	},
	{
		ID:                TierPro,
		Name:              "Pro",
		Description:       "For individuals who chat every day",
		PriceMonthlyCents: 999,
		PriceYearlyCents:  9590,
		Popular:           true,
		Features: []string{
			"200 messages per day",
			"Up to 50 saved conversations",
			"Longer messages",
			"Email support",
		},
		Limits: TierLimits{
			MessagesPerDay:   200,
			MaxConversations: 50,
			MaxMessageLength: 8000,
			Models:           []string{"gemini-2.0-flash", "gemini-2.5-flash"},
		},
	},
	{
		ID:                TierPremium,
		Name:              "Premium",
		Description:       "Heavy usage and the most capable models",
		PriceMonthlyCents: 2999,
		PriceYearlyCents:  28790,
		Features: []string{
			"1000 messages per day",
			"Unlimited saved conversations",
			"All models",
			"Priority support",
		},
		Limits: TierLimits{
			MessagesPerDay:   1000,
			MaxConversations: Unlimited,
			MaxMessageLength: 16000,
			Models:           []string{"*"},
		},
	},
	{
		ID:                TierEnterprise,
		Name:              "Enterprise",
		Description:       "Unlimited usage for teams",
		PriceMonthlyCents: 9999,
		PriceYearlyCents:  95990,
		Features: []string{
			"Unlimited messages",
			"Unlimited saved conversations",
			"All models",
			"Dedicated support",
		},
		Limits: TierLimits{
			MessagesPerDay:   Unlimited,
			MaxConversations: Unlimited,
			MaxMessageLength: Unlimited,
			Models:           []string{"*"},
		},
	},
}

// Tiers returns a copy of the tier catalog in display order.
func Tiers() []Tier {
	out := make([]Tier, len(tierCatalog))
	copy(out, tierCatalog)
	return out
}

// LookupTier finds a tier by id.
func LookupTier(id TierID) (Tier, bool) {
	for _, t := range tierCatalog {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// Membership is a user's current tier plus the daily usage counter.
type Membership struct {
	UserID        string     `json:"user_id"`
	TierID        TierID     `json:"tier_id"`
	StartedAt     time.Time  `json:"started_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	MessagesToday int        `json:"messages_today"`
	UsageDate     string     `json:"usage_date"` // YYYY-MM-DD in UTC
	TotalMessages int64      `json:"total_messages"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Expired reports whether a time-boxed membership has lapsed at now.
func (m *Membership) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !now.Before(*m.ExpiresAt)
}

// UsageStatus summarizes the user's quota for the current day.
type UsageStatus struct {
	TierID         TierID     `json:"tier_id"`
	TierName       string     `json:"tier_name"`
	MessagesToday  int        `json:"messages_today"`
	MessagesPerDay int        `json:"messages_per_day"`
	Remaining      int        `json:"remaining"`
	ResetsAt       time.Time  `json:"resets_at"`
	TotalMessages  int64      `json:"total_messages"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

type MembershipRepository interface {
	Get(ctx context.Context, userID string) (*Membership, error)
	// Update applies fn to the stored membership atomically. A missing
	// membership is passed to fn as a zero value with UserID set.
	Update(ctx context.Context, userID string, fn func(m *Membership) error) (*Membership, error)
}

type MembershipService interface {
	ListTiers() []Tier
	GetTier(id TierID) (*Tier, error)
	GetMembership(ctx context.Context, userID string) (*Membership, error)
	GetUsage(ctx context.Context, userID string) (*UsageStatus, error)
	CheckMessage(ctx context.Context, userID string, length int, model string) error
	ConsumeMessage(ctx context.Context, userID string) (*UsageStatus, error)
	RefundMessage(ctx context.Context, userID string) error
	CanCreateConversation(ctx context.Context, userID string, current int) error
	SetTier(ctx context.Context, userID string, tier TierID, expiresAt *time.Time) (*Membership, error)
}
