// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides the owner keys, rater tokens and share slugs that stand
in for a login session.

# Admin Keys

The comparison owner proves ownership with an HMAC-SHA256 key:

	adminKey := auth.GenerateAdminKey(comparisonID, salt)
	err := auth.ValidateAdminKey(comparisonID, adminKey, salt)

The key is URL-safe base64 without padding. It is derived from the comparison
ID and salt, so it is never stored.

# Rater Tokens

Household members join a comparison by display name and receive a random
24-byte (192-bit) token:

	token, err := auth.GenerateRaterToken()

The token is sent as X-Rater-Token on rating and pro/con writes.

# Share Slugs

Activated comparisons are shared by a base62 slug:

	slug := auth.GenerateShareSlug(comparisonID, salt)

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
