package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

// File is a parsed seed file.
type File struct {
	Company      string        `yaml:"company" validate:"required,slug"`
	Branding     *Branding     `yaml:"branding"`
	Spaces       []Space       `yaml:"spaces" validate:"dive"`
	Courses      []Course      `yaml:"courses" validate:"dive"`
	Trails       []Trail       `yaml:"trails" validate:"dive"`
	Levels       []Level       `yaml:"levels" validate:"dive"`
	Items        []Item        `yaml:"marketplace_items" validate:"dive"`
	AccessGroups []AccessGroup `yaml:"access_groups" validate:"dive"`
	Challenges   []Challenge   `yaml:"challenges" validate:"dive"`
	Events       []Event       `yaml:"events" validate:"dive"`
}

type Branding struct {
	PrimaryColor   string `yaml:"primary_color" validate:"omitempty,hexcolor"`
	LogoURL        string `yaml:"logo_url" validate:"omitempty,url"`
	WelcomeMessage string `yaml:"welcome_message"`
}

type Space struct {
	Slug        string `yaml:"slug" validate:"required,slug"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
	Visibility  string `yaml:"visibility" validate:"omitempty,oneof=public private"`
	Position    int    `yaml:"position"`
}

type Course struct {
	Slug        string   `yaml:"slug" validate:"required,slug"`
	Title       string   `yaml:"title" validate:"required"`
	Description string   `yaml:"description"`
	Published   bool     `yaml:"published"`
	CoinsReward int      `yaml:"coins_reward" validate:"gte=0"`
	Position    int      `yaml:"position"`
	Lessons     []Lesson `yaml:"lessons" validate:"dive"`
}

// Lesson is keyed by its position within the course. A lesson without an
// explicit position takes its index in the list.
type Lesson struct {
	Title    string `yaml:"title" validate:"required"`
	Body     string `yaml:"body"`
	Position *int   `yaml:"position" validate:"omitempty,gte=0"`
	XPReward int    `yaml:"xp_reward" validate:"gte=0"`
}

type Trail struct {
	Slug        string   `yaml:"slug" validate:"required,slug"`
	Title       string   `yaml:"title" validate:"required"`
	Description string   `yaml:"description"`
	Published   bool     `yaml:"published"`
	Courses     []string `yaml:"courses" validate:"dive,slug"`
}

type Level struct {
	Level int    `yaml:"level" validate:"gte=0"`
	Name  string `yaml:"name"`
	MinXP int    `yaml:"min_xp" validate:"gte=0"`
}

type Item struct {
	Slug        string          `yaml:"slug" validate:"required,slug"`
	Name        string          `yaml:"name" validate:"required"`
	Description string          `yaml:"description"`
	Price       decimal.Decimal `yaml:"price"`
	Stock       *int            `yaml:"stock" validate:"omitempty,gte=0"`
	Active      *bool           `yaml:"active"`
	ImageURL    string          `yaml:"image_url" validate:"omitempty,url"`
}

// AccessGroup members are profile logins; courses and spaces are slugs.
// Links are only ever added.
type AccessGroup struct {
	Name        string   `yaml:"name" validate:"required"`
	Description string   `yaml:"description"`
	Members     []string `yaml:"members" validate:"dive,required"`
	Courses     []string `yaml:"courses" validate:"dive,slug"`
	Spaces      []string `yaml:"spaces" validate:"dive,slug"`
}

type Challenge struct {
	Slug        string     `yaml:"slug" validate:"required,slug"`
	Title       string     `yaml:"title" validate:"required"`
	Description string     `yaml:"description"`
	CoinsReward int        `yaml:"coins_reward" validate:"gte=0"`
	StartsAt    *time.Time `yaml:"starts_at"`
	EndsAt      *time.Time `yaml:"ends_at"`
}

type Event struct {
	Slug        string     `yaml:"slug" validate:"required,slug"`
	Title       string     `yaml:"title" validate:"required"`
	Description string     `yaml:"description"`
	Location    string     `yaml:"location"`
	StartsAt    time.Time  `yaml:"starts_at" validate:"required"`
	EndsAt      *time.Time `yaml:"ends_at"`
	Capacity    *int       `yaml:"capacity" validate:"omitempty,gt=0"`
}

// ErrInvalidFile wraps every parse and validation failure.
var ErrInvalidFile = errors.New("invalid seed file")

// Parse decodes and validates a seed file. Unknown keys are rejected so
// typos do not silently drop data.
func Parse(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidFile)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return &f, nil
}

func (f *File) validate() error {
	if err := validation.Struct(f); err != nil {
		var he *errs.HTTPError
		if errors.As(err, &he) && len(he.Errors) > 0 {
			msgs := make([]string, len(he.Errors))
			for i, fe := range he.Errors {
				msgs[i] = fe.Field + ": " + fe.Error
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	for _, dup := range []struct {
		kind string
		keys []string
	}{
		{"space", slugs(f.Spaces, func(s Space) string { return s.Slug })},
		{"course", slugs(f.Courses, func(c Course) string { return c.Slug })},
		{"trail", slugs(f.Trails, func(t Trail) string { return t.Slug })},
		{"marketplace item", slugs(f.Items, func(i Item) string { return i.Slug })},
		{"access group", slugs(f.AccessGroups, func(g AccessGroup) string { return g.Name })},
		{"challenge", slugs(f.Challenges, func(c Challenge) string { return c.Slug })},
		{"event", slugs(f.Events, func(e Event) string { return e.Slug })},
		{"level", slugs(f.Levels, func(l Level) string { return fmt.Sprint(l.Level) })},
	} {
		if key := firstDuplicate(dup.keys); key != "" {
			return fmt.Errorf("duplicate %s %q", dup.kind, key)
		}
	}
	for _, c := range f.Courses {
		positions := make([]string, len(c.Lessons))
		for i, l := range c.Lessons {
			positions[i] = fmt.Sprint(l.position(i))
		}
		if key := firstDuplicate(positions); key != "" {
			return fmt.Errorf("course %q: duplicate lesson position %s", c.Slug, key)
		}
	}
	return nil
}

func (l Lesson) position(index int) int {
	if l.Position != nil {
		return *l.Position
	}
	return index
}

func slugs[T any](items []T, key func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = key(item)
	}
	return out
}

func firstDuplicate(keys []string) string {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			return k
		}
		seen[k] = true
	}
	return ""
}
