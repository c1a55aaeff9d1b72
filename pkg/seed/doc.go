// Package seed bootstraps a company's catalog from a YAML file.
//
// A seed file names the company by slug and lists the spaces, courses (with
// their lessons), trails, levels, marketplace items, access groups,
// challenges and events it should contain. Every entry is matched against
// existing rows by its natural key (a slug, a level number, a course and
// lesson position, a group name) so applying the same file twice changes
// nothing. The whole file is applied inside one transaction.
//
// Example:
//
//	company: acme
//	spaces:
//	  - slug: general
//	    name: General
//	courses:
//	  - slug: onboarding
//	    title: Onboarding
//	    published: true
//	    lessons:
//	      - title: Welcome
//	        body: "# Hello"
//	        xp_reward: 10
//	trails:
//	  - slug: getting-started
//	    title: Getting started
//	    courses: [onboarding]
package seed
