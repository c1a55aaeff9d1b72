package audit

import "fmt"

// Storage operations recorded by StorageEvent.
const (
	StorageUpload   = "upload"
	StorageDownload = "download"
	StorageRemove   = "remove"
	StorageList     = "list"
	StorageSign     = "sign"
)

// StorageEvent records an object storage operation.
type StorageEvent struct {
	Actor
	Operation    string
	Bucket       string
	Path         string
	Success      bool
	ErrorMessage string
}

func (e StorageEvent) MessageID() string {
	return "storage"
}

func (e StorageEvent) Message() string {
	object := e.Bucket + "/" + e.Path
	if e.Success {
		return fmt.Sprintf("%s %s %s", e.Actor, e.Operation, object)
	}
	return withError(fmt.Sprintf("%s failed to %s %s", e.Actor, e.Operation, object), e.ErrorMessage)
}

func (e StorageEvent) Severity() Severity {
	return severity(e.Success)
}

func (e StorageEvent) Facility() int {
	return FacilityLocal0
}

func (e StorageEvent) StructuredData() map[string]map[string]string {
	sd := e.Actor.structuredData()
	sd[SDIDSubject] = map[string]string{
		"bucket": e.Bucket,
		"path":   e.Path,
	}
	sd[SDIDAction] = map[string]string{
		"operation": e.Operation,
		"result":    result(e.Success),
	}
	return sd
}
