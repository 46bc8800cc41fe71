package models

// ServiceClaims are the claims carried by the gateway's service token.
// OwnerID is the chat/user the gateway is acting for on this request.
type ServiceClaims struct {
	Subject string
	OwnerID int64
}
