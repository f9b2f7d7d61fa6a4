// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the household-pick API server.

household-pick helps a household choose between a few wishlist items. The
owner lists 2-5 candidates and weighted criteria, household members rate
every item 1-5 per criterion, and the server ranks the items by weighted
score, reports how much the raters agree, and records the final choice.

# Starting the Server

Settings come from CLI flags, environment variables, or a .env file:

	DATABASE_URL=household.db ADMIN_KEY_SALT=... SHARE_SLUG_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file or PostgreSQL connection string
  - ADMIN_KEY_SALT (--admin-salt): Secret for owner key HMAC
  - SHARE_SLUG_SALT (--slug-salt): Secret for share slug generation

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - BASE_URL (--base-url): Public base URL for share links
  - PRESETS_FILE (--presets): YAML criteria presets
  - RESULT_CACHE_TTL (--cache-ttl): Result memoization window (default: 5m)

Logs are text on a terminal and JSON otherwise.

# Architecture

  - decision: scoring, ranking, agreement and confirmation rules
  - store: SQL repository for comparisons, ratings and snapshots
  - handlers: HTTP request handlers (owner, rating, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: request IDs, CORS, logging, metrics, JSON helpers
  - presets: default criteria sets
  - models: Request/response and domain types
  - auth: Key, token and slug generation
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
