package audit

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
)

func expectInsert(mock sqlmock.Sqlmock, facility int, sev Severity, msgid string) *sqlmock.ExpectedExec {
	return mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			facility,         // facility
			int(sev),         // severity
			sqlmock.AnyArg(), // timestamp
			sqlmock.AnyArg(), // hostname
			"community",      // appname
			sqlmock.AnyArg(), // procid
			msgid,            // msgid
			sqlmock.AnyArg(), // sdata (JSON)
			sqlmock.AnyArg(), // message
		)
}

func TestStoreSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	expectInsert(mock, FacilityLocal0, SeverityInfo, "table-write").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Save(TableEvent{Actor: alice(), Table: "posts", Operation: OpInsert, Rows: 1, Success: true})
	if err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreSaveAuthenticateEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	expectInsert(mock, FacilityAuthPriv, SeverityWarning, "authn").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Save(AuthenticateEvent{Actor: alice(), AuthenticatorName: "authn", ErrorMessage: "invalid credentials"})
	if err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreNilDB(t *testing.T) {
	store := &Store{db: nil}

	err := store.Save(RPCEvent{Actor: alice(), Function: "leaderboard", Success: true})
	if err != nil {
		t.Errorf("Save() with nil db should not error, got: %v", err)
	}
}

func TestStoreClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	store := NewStoreWithDB(db)

	mock.ExpectClose()

	err = store.Close()
	if err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreCloseNilDB(t *testing.T) {
	store := &Store{db: nil}

	err := store.Close()
	if err != nil {
		t.Errorf("Close() with nil db should not error, got: %v", err)
	}
}

func TestNewStoreWithoutURL(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	store, err := NewStore()
	if err != nil || store != nil {
		t.Errorf("NewStore() = %v, %v; want nil, nil", store, err)
	}
}

func TestAuditorPersistsAndSurvivesStoreFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	var lines, errLog bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&lines)
	auditor := New(logger, NewStoreWithDB(db), zerolog.New(&errLog))

	expectInsert(mock, FacilityLocal0, SeverityInfo, "storage").
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectInsert(mock, FacilityLocal0, SeverityInfo, "rpc").
		WillReturnError(errors.New("connection reset"))

	auditor.Log(StorageEvent{Actor: alice(), Operation: StorageUpload, Bucket: "avatars", Path: "a.png", Success: true})
	auditor.Log(RPCEvent{Actor: alice(), Function: "leaderboard", Success: true})

	if strings.Count(lines.String(), "\n") != 2 {
		t.Errorf("expected two syslog lines, got %q", lines.String())
	}
	if !strings.Contains(errLog.String(), "connection reset") {
		t.Errorf("expected store failure to be logged, got %q", errLog.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestMessage(t *testing.T) {
	msg := Message{
		Facility:  FacilityAuthPriv,
		Severity:  int(SeverityInfo),
		Timestamp: time.Now(),
		Hostname:  "localhost",
		Appname:   "community",
		Procid:    "12345",
		Msgid:     "authn",
		Sdata:     map[string]any{SDIDTenant: map[string]any{"company": "acme"}},
		Message:   "alice@acme successfully authenticated with authenticator authn",
	}

	if msg.Facility != FacilityAuthPriv {
		t.Errorf("Message.Facility = %v, want %v", msg.Facility, FacilityAuthPriv)
	}
	if msg.Msgid != "authn" {
		t.Errorf("Message.Msgid = %v, want 'authn'", msg.Msgid)
	}
}
