// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on PostgreSQL and SQLite.

# Tables

  - comparison: name, type, lifecycle status, rating version, confirmed choice
  - candidate_item: 2-5 items per comparison with a sort order
  - criterion: weighted evaluation dimensions
  - rater: household members who joined a comparison
  - rating: one 1-5 value per (item, criterion, rater)
  - pro_con: free-text pros and cons per item
  - decision_snapshot: immutable result recorded at confirmation

# Relationships

	comparison 1──* candidate_item
	comparison 1──* criterion
	comparison 1──* rater
	candidate_item 1──* rating *──1 criterion
	rater 1──* rating
	candidate_item 1──* pro_con
	comparison 1──1 decision_snapshot

All foreign keys use ON DELETE CASCADE. SQLite connections must enable
foreign_keys for them to be enforced.
*/
package db
