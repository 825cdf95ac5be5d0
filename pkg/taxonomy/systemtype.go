package taxonomy

import (
	"fmt"
	"strings"
)

// SystemType is the database or engine a subtask is written for.
type SystemType int

const (
	Clickhouse SystemType = iota
	Duckdb
	MySQL
	OracleDB
	PostgreSQL
	SQLite
	SqlServer
	Vertica
	OtherSystem
)

var systemEntries = [...]Entry{
	Clickhouse:  {CanonicalName: "clickhouse", ID: 0, Aliases: []string{"clickhouse", "click", "ch"}},
	Duckdb:      {CanonicalName: "duckdb", ID: 1, Aliases: []string{"duckdb", "duck", "ddb"}},
	MySQL:       {CanonicalName: "mysql", ID: 2, Aliases: []string{"mysql"}},
	OracleDB:    {CanonicalName: "oracle", ID: 3, Aliases: []string{"oracledb", "oracle", "plsql"}},
	PostgreSQL:  {CanonicalName: "postgres", ID: 4, Aliases: []string{"pg", "postgres", "pg_dwh", "postgres_db", "postgresdb"}},
	SQLite:      {CanonicalName: "sqlite", ID: 5, Aliases: []string{"sqlite"}},
	SqlServer:   {CanonicalName: "sqlserver", ID: 6, Aliases: []string{"sqlserver", "mssql"}},
	Vertica:     {CanonicalName: "vertica", ID: 7, Aliases: []string{"vertica"}},
	OtherSystem: {CanonicalName: "other", ID: 8, Aliases: []string{"other", "unknown", "misc"}},
}

var systemLabels = [...]string{
	Clickhouse:  "CLICKHOUSE",
	Duckdb:      "DUCKDB",
	MySQL:       "MYSQL",
	OracleDB:    "ORACLEDB",
	PostgreSQL:  "POSTGRESQL",
	SQLite:      "SQLITE",
	SqlServer:   "SQLSERVER",
	Vertica:     "VERTICA",
	OtherSystem: "OTHER",
}

var systemIndex = buildIndex("system type", systemEntries[:])

// SystemTypes returns every system type in id order.
func SystemTypes() []SystemType {
	out := make([]SystemType, len(systemEntries))
	for i := range systemEntries {
		out[i] = SystemType(i)
	}
	return out
}

func (t SystemType) valid() bool {
	return t >= 0 && int(t) < len(systemEntries)
}

// Entry returns the taxonomy payload of the system type. Out-of-range
// values report the OtherSystem entry.
func (t SystemType) Entry() Entry {
	if !t.valid() {
		t = OtherSystem
	}
	e := systemEntries[t]
	e.Aliases = copyAliases(e.Aliases)
	return e
}

// CanonicalName returns the lowercase canonical name, e.g. "postgres".
func (t SystemType) CanonicalName() string { return t.Entry().CanonicalName }

// ID returns the numeric id of the system type.
func (t SystemType) ID() int { return t.Entry().ID }

// Aliases returns a copy of the folder-name aliases.
func (t SystemType) Aliases() []string { return t.Entry().Aliases }

// String returns the display label, e.g. "POSTGRESQL".
func (t SystemType) String() string {
	if !t.valid() {
		return systemLabels[OtherSystem]
	}
	return systemLabels[t]
}

// MarshalText encodes the system type as its display label.
func (t SystemType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts a display label or any alias.
func (t *SystemType) UnmarshalText(text []byte) error {
	parsed, err := ParseSystemTypeLabel(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ResolveSystemType maps a folder token to its system type. Unrecognized
// tokens resolve to OtherSystem.
func ResolveSystemType(token string) SystemType {
	if i, ok := systemIndex[fold(token)]; ok {
		return SystemType(i)
	}
	return OtherSystem
}

// SystemTypeFromAlias maps a token to its system type, failing with
// ErrUnknownAlias when the token is not a canonical name or alias. Query
// filters use it so that a typo does not silently match as OtherSystem.
func SystemTypeFromAlias(token string) (SystemType, error) {
	if i, ok := systemIndex[fold(token)]; ok {
		return SystemType(i), nil
	}
	return OtherSystem, &AliasError{Kind: "system type", Token: token}
}

// ParseSystemTypeLabel accepts either a display label ("POSTGRESQL") or an
// alias ("pg_dwh").
func ParseSystemTypeLabel(token string) (SystemType, error) {
	for i, label := range systemLabels {
		if strings.EqualFold(token, label) {
			return SystemType(i), nil
		}
	}
	t, err := SystemTypeFromAlias(token)
	if err != nil {
		return OtherSystem, fmt.Errorf("parsing system type: %w", err)
	}
	return t, nil
}
