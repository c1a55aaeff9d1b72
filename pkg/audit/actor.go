package audit

import (
	"github.com/doodlesbykumbi/community-in-go/pkg/identity"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// Actor is the caller an event is attributed to.
type Actor struct {
	Company   tenant.Company
	ProfileID string
	Login     string
	ClientIP  string
}

// ActorOf builds an Actor from an authenticated identity.
func ActorOf(id *identity.Identity) Actor {
	if id == nil {
		return Actor{}
	}
	a := Actor{
		Company:   id.Company,
		ProfileID: id.ProfileID,
		Login:     id.Login,
	}
	if id.RemoteIP != nil {
		a.ClientIP = id.RemoteIP.String()
	}
	return a
}

// String renders the actor as login@company.
func (a Actor) String() string {
	login := a.Login
	if login == "" {
		login = "anonymous"
	}
	return login + "@" + a.Company.Slug
}

func (a Actor) structuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDTenant: {
			"company": a.Company.Slug,
		},
		SDIDAuth: {
			"user": a.Login,
		},
		SDIDClient: {
			"ip": a.ClientIP,
		},
	}
	if !a.Company.ID.IsZero() {
		sd[SDIDTenant]["company_id"] = a.Company.ID.String()
	}
	if a.ProfileID != "" {
		sd[SDIDAuth]["profile"] = a.ProfileID
	}
	return sd
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func severity(success bool) Severity {
	if success {
		return SeverityInfo
	}
	return SeverityWarning
}

func withError(msg, errMsg string) string {
	if errMsg != "" {
		return msg + ": " + errMsg
	}
	return msg
}
