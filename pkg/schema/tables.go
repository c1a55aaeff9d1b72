package schema

import "github.com/doodlesbykumbi/community-in-go/pkg/model"

var ownerAll = Access{Insert: true, Update: true, Delete: true}

func init() {
	Register(&Table{
		Name: "profiles",
		Columns: []string{"id", "company_id", "login", "display_name", "avatar_url", "bio", "role",
			"coins", "xp", "level", "current_streak", "longest_streak", "last_activity_date", "created_at"},
		ReadRole:     model.RoleMember,
		WriteRole:    model.RoleAdmin,
		OwnerColumn:  "id",
		OwnerAccess:  Access{Update: true},
		OwnerColumns: []string{"display_name", "avatar_url", "bio"},
		ColumnRoles:  map[string]model.Role{"role": model.RoleOwner},
		Immutable:    []string{"login", "coins", "xp", "level", "current_streak", "longest_streak", "last_activity_date"},
	})
	Register(&Table{
		Name:      "company_branding",
		Columns:   []string{"id", "company_id", "primary_color", "logo_url", "welcome_message", "updated_at"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleAdmin,
	})

	// Community
	Register(&Table{
		Name:      "spaces",
		Columns:   []string{"id", "company_id", "name", "slug", "description", "visibility", "position", "created_at"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleAdmin,
	})
	Register(&Table{
		Name: "posts",
		Columns: []string{"id", "company_id", "space_id", "author_id", "title", "body", "body_html",
			"pinned", "published", "created_at", "updated_at"},
		ReadRole:    model.RoleMember,
		WriteRole:   model.RoleModerator,
		OwnerColumn: "author_id",
		OwnerAccess: ownerAll,
		ColumnRoles: map[string]model.Role{"pinned": model.RoleModerator},
		Markdown:    &Markdown{Source: "body", Target: "body_html"},
	})
	Register(&Table{
		Name:        "comments",
		Columns:     []string{"id", "company_id", "post_id", "author_id", "body", "body_html", "created_at"},
		ReadRole:    model.RoleMember,
		WriteRole:   model.RoleModerator,
		OwnerColumn: "author_id",
		OwnerAccess: ownerAll,
		Immutable:   []string{"post_id"},
		Markdown:    &Markdown{Source: "body", Target: "body_html"},
	})

	// Learning
	Register(&Table{
		Name:      "courses",
		Columns:   []string{"id", "company_id", "title", "slug", "description", "published", "coins_reward", "position", "created_at"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleAdmin,
	})
	Register(&Table{
		Name:      "lessons",
		Columns:   []string{"id", "company_id", "course_id", "title", "body", "body_html", "position", "xp_reward", "created_at"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleAdmin,
		Markdown:  &Markdown{Source: "body", Target: "body_html"},
	})
	Register(&Table{
		Name:     "lesson_progress",
		Columns:  []string{"id", "company_id", "profile_id", "lesson_id", "course_id", "completed_at"},
		ReadRole: model.RoleMember,
		ReadOnly: true,
	})
	Register(&Table{
		Name:     "course_completions",
		Columns:  []string{"id", "company_id", "profile_id", "course_id", "completed_at"},
		ReadRole: model.RoleMember,
		ReadOnly: true,
	})
	Register(&Table{
		Name:      "trails",
		Columns:   []string{"id", "company_id", "title", "slug", "description", "published", "created_at"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleAdmin,
	})
	Register(&Table{
		Name:      "trail_courses",
		Columns:   []string{"id", "company_id", "trail_id", "course_id", "position"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleAdmin,
	})

	// Gamification
	Register(&Table{
		Name:      "challenges",
		Columns:   []string{"id", "company_id", "title", "slug", "description", "coins_reward", "starts_at", "ends_at", "created_at"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleAdmin,
	})
	Register(&Table{
		Name:        "challenge_participants",
		Columns:     []string{"id", "company_id", "challenge_id", "profile_id", "joined_at", "completed_at", "reward_awarded"},
		ReadRole:    model.RoleMember,
		WriteRole:   model.RoleModerator,
		OwnerColumn: "profile_id",
		OwnerAccess: Access{Delete: true},
		Immutable:   []string{"reward_awarded"},
	})
	Register(&Table{
		Name:     "coin_transactions",
		Columns:  []string{"id", "company_id", "profile_id", "amount", "reason", "created_at"},
		ReadRole: model.RoleMember,
		ReadOnly: true,
	})
	Register(&Table{
		Name:      "levels",
		Columns:   []string{"id", "company_id", "level", "name", "min_xp"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleAdmin,
	})

	// Marketplace
	Register(&Table{
		Name:      "marketplace_items",
		Columns:   []string{"id", "company_id", "name", "slug", "description", "price", "stock", "active", "image_url", "created_at"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleAdmin,
	})
	Register(&Table{
		Name:     "purchases",
		Columns:  []string{"id", "company_id", "item_id", "profile_id", "quantity", "unit_price", "total_price", "created_at"},
		ReadRole: model.RoleMember,
		ReadOnly: true,
	})

	// Events
	Register(&Table{
		Name:      "events",
		Columns:   []string{"id", "company_id", "title", "slug", "description", "location", "starts_at", "ends_at", "capacity", "created_at"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleModerator,
	})
	Register(&Table{
		Name:     "event_registrations",
		Columns:  []string{"id", "company_id", "event_id", "profile_id", "created_at"},
		ReadRole: model.RoleMember,
		ReadOnly: true,
	})

	// Access groups
	Register(&Table{
		Name:      "access_groups",
		Columns:   []string{"id", "company_id", "name", "description", "created_at"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleAdmin,
	})
	Register(&Table{
		Name:      "access_group_members",
		Columns:   []string{"id", "company_id", "group_id", "profile_id"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleAdmin,
	})
	Register(&Table{
		Name:      "access_group_courses",
		Columns:   []string{"id", "company_id", "group_id", "course_id"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleAdmin,
	})
	Register(&Table{
		Name:      "access_group_spaces",
		Columns:   []string{"id", "company_id", "group_id", "space_id"},
		ReadRole:  model.RoleMember,
		WriteRole: model.RoleAdmin,
	})

	// Storage
	Register(&Table{
		Name:     "storage_objects",
		Columns:  []string{"id", "company_id", "bucket", "path", "content_type", "size", "owner_id", "created_at", "updated_at"},
		ReadRole: model.RoleMember,
		ReadOnly: true,
	})
}
