// Package export persists generated records through pluggable sinks: a CSV
// file, a SQLite table, or a Postgres table. The CSV sink implements the
// flattening serializer: schema order drives column order, list values
// collapse into a single delimited cell, and absent optional values render
// as a fixed sentinel distinct from an empty list.
package export
