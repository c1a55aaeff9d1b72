package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/community-in-go/pkg/schema"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// Result counts the rows a seed created and updated, per table.
type Result struct {
	Company tenant.Company
	Created map[string]int
	Updated map[string]int
}

// Tables lists every table the seed touched, sorted.
func (r *Result) Tables() []string {
	seen := map[string]bool{}
	for t := range r.Created {
		seen[t] = true
	}
	for t := range r.Updated {
		seen[t] = true
	}
	tables := make([]string, 0, len(seen))
	for t := range seen {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

// Loader applies seed files.
type Loader struct {
	store  Store
	log    zerolog.Logger
	dryRun bool
	newID  func() string
}

// NewLoader creates a loader writing through store.
func NewLoader(store Store, log zerolog.Logger) *Loader {
	return &Loader{store: store, log: log, newID: uuid.NewString}
}

// WithDryRun makes Load roll back after applying, so the result reports
// what would change.
func (l *Loader) WithDryRun(dryRun bool) *Loader {
	l.dryRun = dryRun
	return l
}

var errDryRun = errors.New("dry run")

// LoadFromReader parses and applies a seed file.
func (l *Loader) LoadFromReader(ctx context.Context, r io.Reader) (*Result, error) {
	f, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, f)
}

// Load applies f in one transaction.
func (l *Loader) Load(ctx context.Context, f *File) (*Result, error) {
	result := &Result{
		Created: make(map[string]int),
		Updated: make(map[string]int),
	}

	err := l.store.Transaction(ctx, func(tx Store) error {
		companyID, err := tx.CompanyID(ctx, f.Company)
		if err != nil {
			return fmt.Errorf("company %q: %w", f.Company, err)
		}
		result.Company = tenant.Company{ID: companyID, Slug: f.Company}

		a := &applier{ctx: ctx, store: tx, company: companyID, result: result, newID: l.newID}
		if err := a.apply(f); err != nil {
			return err
		}
		if l.dryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, err
	}

	l.log.Info().
		Str("company", f.Company).
		Bool("dry_run", l.dryRun).
		Interface("created", result.Created).
		Interface("updated", result.Updated).
		Msg("seed applied")
	return result, nil
}

type applier struct {
	ctx     context.Context
	store   Store
	company tenant.ID
	result  *Result
	newID   func() string
}

func (a *applier) apply(f *File) error {
	if f.Branding != nil {
		if _, err := a.upsert("company_branding", Row{}, Row{
			"primary_color":   f.Branding.PrimaryColor,
			"logo_url":        f.Branding.LogoURL,
			"welcome_message": f.Branding.WelcomeMessage,
		}); err != nil {
			return err
		}
	}

	for _, s := range f.Spaces {
		visibility := s.Visibility
		if visibility == "" {
			visibility = "public"
		}
		if _, err := a.upsert("spaces", Row{"slug": s.Slug}, Row{
			"name":        s.Name,
			"description": s.Description,
			"visibility":  visibility,
			"position":    s.Position,
		}); err != nil {
			return err
		}
	}

	for _, c := range f.Courses {
		courseID, err := a.upsert("courses", Row{"slug": c.Slug}, Row{
			"title":        c.Title,
			"description":  c.Description,
			"published":    c.Published,
			"coins_reward": c.CoinsReward,
			"position":     c.Position,
		})
		if err != nil {
			return err
		}
		for i, lesson := range c.Lessons {
			html, err := schema.RenderMarkdown(lesson.Body)
			if err != nil {
				return fmt.Errorf("course %q lesson %q: %w", c.Slug, lesson.Title, err)
			}
			if _, err := a.upsert("lessons", Row{"course_id": courseID, "position": lesson.position(i)}, Row{
				"title":     lesson.Title,
				"body":      lesson.Body,
				"body_html": html,
				"xp_reward": lesson.XPReward,
			}); err != nil {
				return err
			}
		}
	}

	for _, t := range f.Trails {
		trailID, err := a.upsert("trails", Row{"slug": t.Slug}, Row{
			"title":       t.Title,
			"description": t.Description,
			"published":   t.Published,
		})
		if err != nil {
			return err
		}
		for i, slug := range t.Courses {
			courseID, err := a.lookup("courses", "slug", slug)
			if err != nil {
				return fmt.Errorf("trail %q: %w", t.Slug, err)
			}
			if _, err := a.upsert("trail_courses", Row{"trail_id": trailID, "course_id": courseID}, Row{
				"position": i,
			}); err != nil {
				return err
			}
		}
	}

	for _, lvl := range f.Levels {
		if _, err := a.upsert("levels", Row{"level": lvl.Level}, Row{
			"name":   lvl.Name,
			"min_xp": lvl.MinXP,
		}); err != nil {
			return err
		}
	}

	for _, item := range f.Items {
		active := true
		if item.Active != nil {
			active = *item.Active
		}
		if _, err := a.upsert("marketplace_items", Row{"slug": item.Slug}, Row{
			"name":        item.Name,
			"description": item.Description,
			"price":       item.Price,
			"stock":       item.Stock,
			"active":      active,
			"image_url":   item.ImageURL,
		}); err != nil {
			return err
		}
	}

	for _, g := range f.AccessGroups {
		if err := a.accessGroup(g); err != nil {
			return err
		}
	}

	for _, c := range f.Challenges {
		if _, err := a.upsert("challenges", Row{"slug": c.Slug}, Row{
			"title":        c.Title,
			"description":  c.Description,
			"coins_reward": c.CoinsReward,
			"starts_at":    c.StartsAt,
			"ends_at":      c.EndsAt,
		}); err != nil {
			return err
		}
	}

	for _, e := range f.Events {
		if _, err := a.upsert("events", Row{"slug": e.Slug}, Row{
			"title":       e.Title,
			"description": e.Description,
			"location":    e.Location,
			"starts_at":   e.StartsAt,
			"ends_at":     e.EndsAt,
			"capacity":    e.Capacity,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (a *applier) accessGroup(g AccessGroup) error {
	groupID, err := a.upsert("access_groups", Row{"name": g.Name}, Row{
		"description": g.Description,
	})
	if err != nil {
		return err
	}

	links := []struct {
		table, column, refTable, refColumn string
		refs                               []string
	}{
		{"access_group_members", "profile_id", "profiles", "login", g.Members},
		{"access_group_courses", "course_id", "courses", "slug", g.Courses},
		{"access_group_spaces", "space_id", "spaces", "slug", g.Spaces},
	}
	for _, link := range links {
		for _, ref := range link.refs {
			refID, err := a.lookup(link.refTable, link.refColumn, ref)
			if err != nil {
				return fmt.Errorf("access group %q: %w", g.Name, err)
			}
			if _, err := a.upsert(link.table, Row{"group_id": groupID, link.column: refID}, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *applier) lookup(table, column, value string) (string, error) {
	id, err := a.store.Find(a.ctx, a.company, table, Row{column: value})
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("no %s with %s %q", table, column, value)
	}
	return id, err
}

// upsert finds the row matching key and updates it with fields, or inserts
// key and fields as a new row. It returns the row id.
func (a *applier) upsert(table string, key, fields Row) (string, error) {
	id, err := a.store.Find(a.ctx, a.company, table, key)
	switch {
	case err == nil:
		if len(fields) > 0 {
			if err := a.store.Update(a.ctx, a.company, table, id, fields); err != nil {
				return "", fmt.Errorf("update %s: %w", table, err)
			}
			a.result.Updated[table]++
		}
		return id, nil
	case !errors.Is(err, ErrNotFound):
		return "", fmt.Errorf("find %s: %w", table, err)
	}

	id = a.newID()
	row := Row{"id": id}
	for k, v := range key {
		row[k] = v
	}
	for k, v := range fields {
		row[k] = v
	}
	if err := a.store.Insert(a.ctx, a.company, table, row); err != nil {
		return "", fmt.Errorf("insert %s: %w", table, err)
	}
	a.result.Created[table]++
	return id, nil
}
