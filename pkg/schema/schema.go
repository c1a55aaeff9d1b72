package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
)

const (
	// TenantColumn is present on every registered table.
	TenantColumn = "company_id"
	// PrimaryKey is the id column of every registered table.
	PrimaryKey = "id"
)

// Op is a table operation.
type Op string

const (
	OpSelect Op = "select"
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Scope is the set of rows an authorized operation may touch.
type Scope int

const (
	// ScopeNone means the operation is not allowed at all.
	ScopeNone Scope = iota
	// ScopeOwn limits the operation to rows owned by the caller.
	ScopeOwn
	// ScopeAll allows the operation on any row of the company.
	ScopeAll
)

var (
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
	ErrForbidden     = errors.New("insufficient privileges")
	ErrReadOnly      = errors.New("table is read-only")
	ErrColumnLocked  = errors.New("column cannot be written")
)

// Access lists the operations an owner may perform on their own rows.
type Access struct {
	Insert bool
	Update bool
	Delete bool
}

func (a Access) allows(op Op) bool {
	switch op {
	case OpInsert:
		return a.Insert
	case OpUpdate:
		return a.Update
	case OpDelete:
		return a.Delete
	}
	return false
}

// Markdown pairs a markdown source column with its rendered HTML column.
type Markdown struct {
	Source string
	Target string
}

// Table describes one table of the table API.
type Table struct {
	Name      string
	Columns   []string
	ReadRole  model.Role
	WriteRole model.Role
	ReadOnly  bool

	OwnerColumn  string
	OwnerAccess  Access
	OwnerColumns []string

	ColumnRoles map[string]model.Role
	Immutable   []string
	Generated   []string
	Markdown    *Markdown

	columns map[string]bool
}

func (t *Table) init() {
	t.columns = make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		t.columns[c] = true
	}
	if t.Markdown != nil {
		t.Generated = append(t.Generated, t.Markdown.Target)
	}
}

// HasColumn reports whether c is a column of t.
func (t *Table) HasColumn(c string) bool {
	return t.columns[c]
}

// HasUpdatedAt reports whether t carries an updated_at column the server
// maintains.
func (t *Table) HasUpdatedAt() bool {
	return t.columns["updated_at"]
}

// Authorize decides which rows role may touch with op.
func (t *Table) Authorize(op Op, role model.Role) (Scope, error) {
	if !role.AtLeast(t.ReadRole) {
		return ScopeNone, ErrForbidden
	}
	if op == OpSelect {
		return ScopeAll, nil
	}
	if t.ReadOnly {
		return ScopeNone, ErrReadOnly
	}
	if role.AtLeast(t.WriteRole) {
		return ScopeAll, nil
	}
	if t.OwnerColumn != "" && t.OwnerAccess.allows(op) {
		return ScopeOwn, nil
	}
	return ScopeNone, ErrForbidden
}

// CheckWrite verifies that role may set column c in an op within scope.
func (t *Table) CheckWrite(op Op, scope Scope, role model.Role, c string) error {
	if !t.HasColumn(c) {
		return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, c)
	}
	if c == TenantColumn || contains(t.Generated, c) {
		return fmt.Errorf("%w: %s", ErrColumnLocked, c)
	}
	if contains(t.Immutable, c) || c == "created_at" || c == "updated_at" {
		return fmt.Errorf("%w: %s", ErrColumnLocked, c)
	}
	if c == PrimaryKey && op != OpInsert {
		return fmt.Errorf("%w: %s", ErrColumnLocked, c)
	}
	if min, ok := t.ColumnRoles[c]; ok && !role.AtLeast(min) {
		return fmt.Errorf("%w: %s", ErrForbidden, c)
	}
	if scope == ScopeOwn {
		if c == t.OwnerColumn && op == OpUpdate {
			return fmt.Errorf("%w: %s", ErrColumnLocked, c)
		}
		if len(t.OwnerColumns) > 0 && !contains(t.OwnerColumns, c) && c != t.OwnerColumn && c != PrimaryKey {
			return fmt.Errorf("%w: %s", ErrForbidden, c)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var registry = map[string]*Table{}

// Register adds t to the registry. It panics on duplicates.
func Register(t *Table) {
	if _, ok := registry[t.Name]; ok {
		panic(fmt.Sprintf("schema: table %q registered twice", t.Name))
	}
	t.init()
	registry[t.Name] = t
}

// Lookup returns the table named name.
func Lookup(name string) (*Table, error) {
	t, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}

// Tables returns all registered tables sorted by name.
func Tables() []*Table {
	tables := make([]*Table, 0, len(registry))
	for _, t := range registry {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables
}
