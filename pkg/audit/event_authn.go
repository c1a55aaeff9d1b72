package audit

import "fmt"

// AuthenticateEvent represents an authentication audit event
type AuthenticateEvent struct {
	Actor
	AuthenticatorName string
	Success           bool
	ErrorMessage      string
}

func (e AuthenticateEvent) MessageID() string {
	return "authn"
}

func (e AuthenticateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated with authenticator %s", e.Actor, e.AuthenticatorName)
	}
	return withError(fmt.Sprintf("%s failed to authenticate with authenticator %s", e.Actor, e.AuthenticatorName), e.ErrorMessage)
}

func (e AuthenticateEvent) Severity() Severity {
	return severity(e.Success)
}

func (e AuthenticateEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AuthenticateEvent) StructuredData() map[string]map[string]string {
	sd := e.Actor.structuredData()
	sd[SDIDAuth]["authenticator"] = e.AuthenticatorName
	sd[SDIDAction] = map[string]string{
		"operation": "authenticate",
		"result":    result(e.Success),
	}
	return sd
}
