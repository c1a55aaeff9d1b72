package rpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/identity"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

var (
	ErrUnknownFunction   = errors.New("unknown function")
	ErrForbidden         = errors.New("insufficient privileges")
	ErrInvalidArgs       = errors.New("invalid arguments")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrItemUnavailable   = errors.New("item is not available")
	ErrOutOfStock        = errors.New("item is out of stock")
	ErrChallengeClosed   = errors.New("challenge is not open")
	ErrNotParticipant    = errors.New("profile has not joined the challenge")
	ErrEventFull         = errors.New("event is full")
)

// Call carries the caller and tenant of one function invocation.
type Call struct {
	Company   tenant.Company
	ProfileID string
	Role      model.Role
	Now       time.Time
}

func (c *Call) company() string {
	return c.Company.ID.String()
}

// Function is one callable server function.
type Function struct {
	Name        string
	Description string
	MinRole     model.Role
	// Tables lists the tables the function may write.
	Tables []string

	newArgs func() interface{}
	run     func(tx *gorm.DB, call *Call, args interface{}) (interface{}, error)
}

// define builds a Function whose arguments decode into A.
func define[A any](name, description string, minRole model.Role, tables []string,
	run func(tx *gorm.DB, call *Call, args *A) (interface{}, error)) *Function {
	return &Function{
		Name:        name,
		Description: description,
		MinRole:     minRole,
		Tables:      tables,
		newArgs:     func() interface{} { return new(A) },
		run: func(tx *gorm.DB, call *Call, args interface{}) (interface{}, error) {
			return run(tx, call, args.(*A))
		},
	}
}

// Registry holds functions by name.
type Registry struct {
	funcs map[string]*Function
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: map[string]*Function{}}
}

// Register adds f. It panics on duplicate names.
func (r *Registry) Register(f *Function) {
	if _, ok := r.funcs[f.Name]; ok {
		panic(fmt.Sprintf("rpc: function %q registered twice", f.Name))
	}
	r.funcs[f.Name] = f
}

// Lookup returns the function named name.
func (r *Registry) Lookup(name string) (*Function, error) {
	f, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return f, nil
}

// Available returns the functions role may call, sorted by name.
func (r *Registry) Available(role model.Role) []*Function {
	var out []*Function
	for _, f := range r.funcs {
		if role.AtLeast(f.MinRole) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Builtins returns a registry holding every built-in function.
func Builtins() *Registry {
	r := NewRegistry()
	for _, f := range []*Function{
		completeLesson,
		checkCourseCompletion,
		recordActivity,
		awardCoins,
		awardXP,
		purchaseItem,
		joinChallenge,
		completeChallenge,
		registerForEvent,
		cancelEventRegistration,
		replaceAccessGroupMembers,
		replaceAccessGroupCourses,
		replaceAccessGroupSpaces,
		bulkDeletePosts,
		bulkMovePosts,
		bulkPublishCourses,
		leaderboard,
		companyStats,
	} {
		r.Register(f)
	}
	return r
}

// Result is the outcome of a successful call.
type Result struct {
	Function *Function
	Value    interface{}
}

// Executor runs functions from a registry against the database.
type Executor struct {
	db       *gorm.DB
	registry *Registry
	now      func() time.Time
}

// NewExecutor creates an executor.
func NewExecutor(db *gorm.DB, registry *Registry) *Executor {
	return &Executor{db: db, registry: registry, now: time.Now}
}

// Registry returns the executor's registry.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// DecodeArgs decodes and validates raw JSON arguments for f. An empty body
// is treated as an empty object.
func DecodeArgs(f *Function, raw []byte) (interface{}, error) {
	args := f.newArgs()
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	if d, ok := args.(defaulter); ok {
		d.defaults()
	}
	if err := validation.Struct(args); err != nil {
		return nil, err
	}
	if c, ok := args.(checker); ok {
		if err := c.check(); err != nil {
			return nil, err
		}
	}
	return args, nil
}

// defaulter fills in omitted arguments before validation.
type defaulter interface {
	defaults()
}

// checker validates what struct tags cannot express.
type checker interface {
	check() error
}

// Call runs the function name for the caller inside one transaction.
func (e *Executor) Call(ctx context.Context, caller *identity.Identity, name string, raw []byte) (*Result, error) {
	f, err := e.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	if !caller.Can(f.MinRole) {
		return nil, fmt.Errorf("%w: %s requires %s", ErrForbidden, f.Name, f.MinRole)
	}
	args, err := DecodeArgs(f, raw)
	if err != nil {
		return nil, err
	}

	call := &Call{
		Company:   caller.Company,
		ProfileID: caller.ProfileID,
		Role:      caller.Role,
		Now:       e.now().UTC(),
	}
	var value interface{}
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		value, err = f.run(tx, call, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Result{Function: f, Value: value}, nil
}
