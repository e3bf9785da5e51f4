// Package businessflow contains business logic orchestration for campaign lifecycle operations
package businessflow

import (
	"context"

	"github.com/textpulse/campaign-console/utils"
)

// ClientMetadata carries request metadata used for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// getRequestIDFromContext extracts the request ID from context
func getRequestIDFromContext(ctx context.Context) *string {
	if requestID, ok := ctx.Value(utils.RequestIDKey).(string); ok && requestID != "" {
		return &requestID
	}
	return nil
}

// getStringPtr returns a pointer to the string if non-empty
func getStringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
