package audit

import "fmt"

// APIKeyRotationEvent represents an API key rotation audit event
type APIKeyRotationEvent struct {
	Actor
	RotatedLogin string
	Success      bool
	ErrorMessage string
}

func (e APIKeyRotationEvent) MessageID() string {
	return "api-key"
}

func (e APIKeyRotationEvent) Message() string {
	if e.Login == e.RotatedLogin {
		if e.Success {
			return fmt.Sprintf("%s rotated their own API key", e.Actor)
		}
		return withError(fmt.Sprintf("%s failed to rotate their own API key", e.Actor), e.ErrorMessage)
	}
	if e.Success {
		return fmt.Sprintf("%s rotated API key for %s", e.Actor, e.RotatedLogin)
	}
	return withError(fmt.Sprintf("%s failed to rotate API key for %s", e.Actor, e.RotatedLogin), e.ErrorMessage)
}

func (e APIKeyRotationEvent) Severity() Severity {
	return severity(e.Success)
}

func (e APIKeyRotationEvent) Facility() int {
	return FacilityAuthPriv
}

func (e APIKeyRotationEvent) StructuredData() map[string]map[string]string {
	sd := e.Actor.structuredData()
	sd[SDIDSubject] = map[string]string{
		"login": e.RotatedLogin,
	}
	sd[SDIDAction] = map[string]string{
		"operation": "rotate-api-key",
		"result":    result(e.Success),
	}
	return sd
}
