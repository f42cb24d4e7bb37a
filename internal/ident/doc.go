// Package ident computes stable identities for simulated runs.
//
// A run ID is content-addressed: SHA-256 over the canonical JSON of the
// resolved parameters, the breath count and the model version, with a domain
// prefix. Identical configurations always map to the same ID, so persisting
// the same run twice is a no-op.
//
// Key constraints:
//   - NO JSON floats in canonical form; float64 values are encoded as their
//     shortest round-trip decimal string (FormatFloat)
//   - Object keys sorted by UTF-16 code units, strings NFC normalized
//   - Run tokens (UUIDv7) identify one save and never feed into a hash
package ident
