// Package migrations ships the DDL for the token catalog, the interaction
// log and the market snapshot history, and applies it at startup.
package migrations

import "embed"

// PostgresFS holds the tokens, token_aliases and interactions schema.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the market_snapshots schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
