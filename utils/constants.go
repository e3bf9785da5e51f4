package utils

import (
	"time"
)

// ContextKey is the type for request-scoped context values
type ContextKey string

const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)

// Delivery accounting constants. The send step is a deterministic accounting
// operation over the recipient count; no telephony provider is involved.
const (
	// UnitSMSPrice is the price of a single SMS in currency units
	UnitSMSPrice = 0.05

	// DeliveryRate is the fraction of sent messages expected to be delivered (95.2%)
	DeliveryRate = 0.952

	// OpenRate is the fraction of delivered messages expected to be opened (68.4%)
	OpenRate = 0.684

	// ClickRate is the fraction of opened messages expected to be clicked (15.8%)
	ClickRate = 0.158

	// AvgConversionValue is the average revenue of a single conversion in currency units
	AvgConversionValue = 25.0
)

// SendConfirmationPhrase must be typed (case-insensitively) by the operator
// before an execution run is accepted.
const SendConfirmationPhrase = "confirm send"

// Cache and lock constants
const (
	// ExecutionLockTTL bounds how long a per-campaign send lock may be held
	ExecutionLockTTL = 30 * time.Second

	// AudiencePreviewTTL is the cache lifetime of mailing list audience previews
	AudiencePreviewTTL = 5 * time.Minute

	// ExecutionLockKeyPrefix is the redis key prefix for per-campaign send locks
	ExecutionLockKeyPrefix = "execution_lock"

	// AudiencePreviewKeyPrefix is the redis key prefix for audience previews
	AudiencePreviewKeyPrefix = "audience_preview"
)

// CORS constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
