package repository

import _ "embed"

// Schema is the idempotent DDL for all Pitlane tables.
//
//go:embed schema.sql
var Schema string
