// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - AdminKeySalt: Secret for owner key HMAC (required)
  - ShareSlugSalt: Secret for share slug generation (required)
  - BaseURL: Public base URL for share links (default: http://localhost:<port>)
  - PresetsFile: YAML criteria presets replacing the built-in set
  - ResultCacheTTL: Memoization window for computed results (default: 5m)

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type
	--base-url    Public base URL
	--presets     Criteria presets file
	--cache-ttl   Result cache TTL
	--admin-salt  Admin key salt
	--slug-salt   Share slug salt

# Environment Variables

Flags fall back to environment variables:

	PORT             → -p
	DATABASE_URL     → -d
	DATABASE_TYPE    → -t
	BASE_URL         → --base-url
	PRESETS_FILE     → --presets
	RESULT_CACHE_TTL → --cache-ttl
	ADMIN_KEY_SALT   → --admin-salt
	SHARE_SLUG_SALT  → --slug-salt

CLI flags take precedence over environment variables. main loads a .env file
into the environment before parsing.
*/
package cliparse
