package audit

import "fmt"

// RPCEvent records a remote procedure call.
type RPCEvent struct {
	Actor
	Function     string
	Success      bool
	ErrorMessage string
}

func (e RPCEvent) MessageID() string {
	return "rpc"
}

func (e RPCEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s called %s", e.Actor, e.Function)
	}
	return withError(fmt.Sprintf("%s failed to call %s", e.Actor, e.Function), e.ErrorMessage)
}

func (e RPCEvent) Severity() Severity {
	return severity(e.Success)
}

func (e RPCEvent) Facility() int {
	return FacilityLocal0
}

func (e RPCEvent) StructuredData() map[string]map[string]string {
	sd := e.Actor.structuredData()
	sd[SDIDSubject] = map[string]string{
		"function": e.Function,
	}
	sd[SDIDAction] = map[string]string{
		"operation": "call",
		"result":    result(e.Success),
	}
	return sd
}
