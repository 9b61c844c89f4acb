package models

import "time"

type ReferralStatus string

// ReferralPending is the state every new edge starts in; later transitions
// belong to the rewards flow.
const ReferralPending ReferralStatus = "pending"

func (s ReferralStatus) Valid() bool {
	return s == ReferralPending
}

// ReferralEdge records that ReferrerID's code was used when ReferredID registered.
// Both ids are client_profiles ids.
type ReferralEdge struct {
	ID         string
	ReferrerID string
	ReferredID string
	Status     ReferralStatus
	CreatedAt  time.Time
}
