// Package schema is the declaration front end: a one-shot Builder that
// validates attribute bags against per-kind attribute schemas, a Package
// namespace of types and constants, and loaders for YAML and TOML schema
// documents.
//
// Attribute bags are decoded with mapstructure into the *Attrs structs of
// this package; their struct tags carry the attribute name, the default,
// the allowed values and a named check. Attributes lists the same schema
// for generators and tooling.
package schema
