package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ProviderStatus is the presence state of a service provider.
type ProviderStatus string

const (
	ProviderOnline    ProviderStatus = "online"
	ProviderOffline   ProviderStatus = "offline"
	ProviderHaveOrder ProviderStatus = "have_order"
)

// ProviderPresence is a provider's live record in the presence store.
// Exactly one record exists per UserID; last write wins.
type ProviderPresence struct {
	UserID            string         `json:"user_id"`
	ProviderID        string         `json:"provider_id"`
	UUID              string         `json:"uuid"` // transport endpoint id
	Loc               Coord          `json:"loc"`
	Status            ProviderStatus `json:"status"`
	ModuleID          string         `json:"module_id"`
	NotificationToken string         `json:"notification_token"`
	Updated           time.Time      `json:"updated"`
}

// OrderStep is the ordinal lifecycle state of an active order.
type OrderStep int

const (
	StepNotAcceptedByProvider      OrderStep = 0
	StepInProgressNotArrived       OrderStep = 1
	StepInProgressArrived          OrderStep = 2
	StepProviderFinishedTookPics   OrderStep = 3
	StepAwaitingCustomerAcceptance OrderStep = 4
	StepFinished                   OrderStep = 5
)

func (s OrderStep) String() string {
	switch s {
	case StepNotAcceptedByProvider:
		return "not_accepted_by_provider"
	case StepInProgressNotArrived:
		return "in_progress_not_arrived"
	case StepInProgressArrived:
		return "in_progress_arrived"
	case StepProviderFinishedTookPics:
		return "provider_finished_took_pictures"
	case StepAwaitingCustomerAcceptance:
		return "awaiting_customer_acceptance"
	case StepFinished:
		return "finished"
	}
	return "unknown"
}

// SubmissionType distinguishes customer-picked providers from the
// cascading nearest-first search.
type SubmissionType string

const (
	SubmissionDirect     SubmissionType = "direct"
	SubmissionAutoSelect SubmissionType = "auto_select"
)

type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

// OrderTimeout carries both the configured window and the absolute
// deadline so a reconnecting client can render a correct countdown.
type OrderTimeout struct {
	Seconds    int   `json:"seconds"`
	DeadlineMs int64 `json:"deadline_ms"`
}

// ActiveOrder is an in-flight dispatch in the presence store. It exists
// only between dispatch and a terminal outcome; termination removes it
// rather than parking it in a terminal state.
type ActiveOrder struct {
	OrderID          string         `json:"order_id"`
	Step             OrderStep      `json:"step"`
	CustomerUUID     string         `json:"customer_uuid"`
	CustomerUserID   string         `json:"customer_user_id"`
	ProviderUUID     string         `json:"provider_uuid"`
	ProviderUserID   string         `json:"provider_user_id"`
	CustomerToken    string         `json:"customer_token"`
	PaymentMethod    PaymentMethod  `json:"payment_method"`
	PaymentHandle    string         `json:"payment_handle,omitempty"`
	SubmissionType   SubmissionType `json:"submission_type"`
	Timeout          OrderTimeout   `json:"timeout"`
	ArrivalThreshold float64        `json:"arrival_threshold"`
	// TimeoutJobID is the race-guard token. A firing timeout job is
	// honored only while its id is still the current one.
	TimeoutJobID string `json:"timeout_job_id,omitempty"`
}

// HistoryReason codes written to the durable order history.
type HistoryReason string

const (
	ReasonAccepted          HistoryReason = "accepted"
	ReasonRejected          HistoryReason = "rejected"
	ReasonTimeout           HistoryReason = "timeout"
	ReasonCancelled         HistoryReason = "cancelled"
	ReasonCustomerCancelled HistoryReason = "customer_cancelled"
	ReasonProviderArrived   HistoryReason = "provider_arrived"
	ReasonServiceFinished   HistoryReason = "service_finished"
	ReasonNoProviders       HistoryReason = "no_providers"
)

// LocationUpdate is the message published to Kafka when a provider
// reports a new position.
type LocationUpdate struct {
	UserID string    `json:"user_id"`
	Loc    Coord     `json:"loc"`
	At     time.Time `json:"at"`
}
