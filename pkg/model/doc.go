// Package model defines the database models for the community schema.
//
// Models are plain GORM structs with explicit column tags. They are used by
// the RPC functions and the seeder on the server, and by the community data
// layer on the client to decode table API rows, which is why every field also
// carries a json tag matching its column.
//
// # Tenancy
//
// Every table except companies carries a company_id column. Queries against
// these tables always filter on it; nothing in this package does that for
// you.
//
// # Core Models
//
//   - Company, CompanyBranding: the tenant and its look
//   - Profile, Credential: company members and their hashed API keys
//   - Space, Post, Comment: community content
//   - Course, Lesson, LessonProgress, CourseCompletion, Trail, TrailCourse: learning
//   - Challenge, ChallengeParticipant, Level, CoinTransaction: gamification
//   - MarketplaceItem, Purchase: the coin store
//   - Event, EventRegistration: scheduled events
//   - AccessGroup and its member/course/space links
//   - StorageObject: metadata for uploaded files
//
// Coin amounts and prices use shopspring/decimal so they round-trip through
// numeric columns without float error.
package model
