package models

import (
	"time"
)

// BillingStatus is the host's current standing with the billing provider.
type BillingStatus string

const (
	BillingFree     BillingStatus = "free"
	BillingTrialing BillingStatus = "trialing"
	BillingActive   BillingStatus = "active"
	BillingPastDue  BillingStatus = "past_due"
	BillingCanceled BillingStatus = "canceled"
)

// InGoodStanding reports whether the status grants unrestricted event
// creation and editing.
func (s BillingStatus) InGoodStanding() bool {
	return s == BillingTrialing || s == BillingActive
}

// User is a host account. BillingStatus is derived from the subscription
// mirror and consulted by the entitlement service.
type User struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	Name          string        `json:"name,omitempty"`
	BillingStatus BillingStatus `json:"billing_status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// SubscriptionStatus mirrors the billing provider's subscription state.
type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Subscription is a local mirror of the external billing provider's record.
// It is only mutated by provider-sync updates, never by user actions here.
type Subscription struct {
	ID                     string             `json:"id"`
	UserID                 string             `json:"user_id"`
	ProviderCustomerID     string             `json:"provider_customer_id"`
	ProviderSubscriptionID string             `json:"provider_subscription_id"`
	Status                 SubscriptionStatus `json:"status"`
	TrialEndsAt            *time.Time         `json:"trial_ends_at,omitempty"`
	PeriodStart            *time.Time         `json:"period_start,omitempty"`
	PeriodEnd              *time.Time         `json:"period_end,omitempty"`
	CanceledAt             *time.Time         `json:"canceled_at,omitempty"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// BillingStatusFor maps a subscription state to the user-level billing status.
// A nil subscription means the free tier.
func BillingStatusFor(sub *Subscription) BillingStatus {
	if sub == nil {
		return BillingFree
	}
	switch sub.Status {
	case SubscriptionTrialing:
		return BillingTrialing
	case SubscriptionActive:
		return BillingActive
	case SubscriptionPastDue:
		return BillingPastDue
	case SubscriptionCanceled:
		return BillingCanceled
	}
	return BillingFree
}
