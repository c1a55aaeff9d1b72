package rpc

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	gormstore "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
)

const (
	sqlEventForUpdate = `SELECT id, capacity FROM events WHERE company_id = ? AND id = ? FOR UPDATE`

	sqlIsRegistered = `SELECT count(*) FROM event_registrations WHERE company_id = ? AND event_id = ? AND profile_id = ?`

	sqlCountRegistrations = `SELECT count(*) FROM event_registrations WHERE company_id = ? AND event_id = ?`

	sqlInsertRegistration = `INSERT INTO event_registrations (id, company_id, event_id, profile_id) VALUES (?, ?, ?, ?)`

	sqlDeleteRegistration = `DELETE FROM event_registrations WHERE company_id = ? AND event_id = ? AND profile_id = ?`
)

type EventArgs struct {
	EventID string `json:"event_id" validate:"required,uuid"`
}

type RegistrationResult struct {
	Registered        bool  `json:"registered"`
	AlreadyRegistered bool  `json:"already_registered"`
	Registrations     int64 `json:"registrations"`
}

var registerForEvent = define("register_for_event",
	"Register the caller for an event, respecting its capacity.",
	model.RoleMember,
	[]string{"event_registrations"},
	func(tx *gorm.DB, call *Call, args *EventArgs) (interface{}, error) {
		var events []struct {
			ID       string `gorm:"column:id"`
			Capacity *int   `gorm:"column:capacity"`
		}
		// The row lock serializes registrations for one event.
		if err := tx.Raw(sqlEventForUpdate, call.company(), args.EventID).Scan(&events).Error; err != nil {
			return nil, gormstore.Classify(err)
		}
		if len(events) == 0 {
			return nil, ErrNotFound
		}
		event := events[0]

		var registered, total int64
		if err := tx.Raw(sqlIsRegistered, call.company(), event.ID, call.ProfileID).Scan(&registered).Error; err != nil {
			return nil, gormstore.Classify(err)
		}
		if err := tx.Raw(sqlCountRegistrations, call.company(), event.ID).Scan(&total).Error; err != nil {
			return nil, gormstore.Classify(err)
		}
		if registered > 0 {
			return &RegistrationResult{Registered: true, AlreadyRegistered: true, Registrations: total}, nil
		}
		if event.Capacity != nil && total >= int64(*event.Capacity) {
			return nil, ErrEventFull
		}

		err := tx.Exec(sqlInsertRegistration, uuid.NewString(), call.company(), event.ID, call.ProfileID).Error
		if err != nil {
			return nil, gormstore.Classify(err)
		}
		return &RegistrationResult{Registered: true, Registrations: total + 1}, nil
	})

type CancelResult struct {
	Cancelled bool `json:"cancelled"`
}

var cancelEventRegistration = define("cancel_event_registration",
	"Withdraw the caller's registration for an event.",
	model.RoleMember,
	[]string{"event_registrations"},
	func(tx *gorm.DB, call *Call, args *EventArgs) (interface{}, error) {
		res := tx.Exec(sqlDeleteRegistration, call.company(), args.EventID, call.ProfileID)
		if res.Error != nil {
			return nil, gormstore.Classify(res.Error)
		}
		return &CancelResult{Cancelled: res.RowsAffected > 0}, nil
	})
