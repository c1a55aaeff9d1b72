package audit

import (
	"fmt"
	"strconv"
	"strings"
)

// Table operations recorded by TableEvent.
const (
	OpRead   = "read"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// TableEvent records a read or write through the table API.
type TableEvent struct {
	Actor
	Table        string
	Operation    string
	RowIDs       []string
	Rows         int
	Success      bool
	ErrorMessage string
}

func (e TableEvent) MessageID() string {
	if e.Operation == OpRead {
		return "table-read"
	}
	return "table-write"
}

func (e TableEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s %s %d row(s) of %s", e.Actor, pastTense(e.Operation), e.Rows, e.Table)
	}
	return withError(fmt.Sprintf("%s failed to %s %s", e.Actor, e.Operation, e.Table), e.ErrorMessage)
}

func (e TableEvent) Severity() Severity {
	return severity(e.Success)
}

func (e TableEvent) Facility() int {
	return FacilityLocal0
}

func (e TableEvent) StructuredData() map[string]map[string]string {
	sd := e.Actor.structuredData()
	sd[SDIDSubject] = map[string]string{
		"table": e.Table,
		"rows":  strconv.Itoa(e.Rows),
	}
	if len(e.RowIDs) > 0 {
		sd[SDIDSubject]["ids"] = strings.Join(e.RowIDs, ",")
	}
	sd[SDIDAction] = map[string]string{
		"operation": e.Operation,
		"result":    result(e.Success),
	}
	return sd
}

func pastTense(op string) string {
	switch op {
	case OpRead:
		return "read"
	case OpInsert:
		return "inserted"
	case OpUpdate:
		return "updated"
	case OpDelete:
		return "deleted"
	}
	return op
}
