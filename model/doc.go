// Package model defines core types used throughout propdex.
//
// # Identity Types
//
//   - EntityID: Externally allocated entity identifier (uint64)
//
// propdex never allocates, validates or frees an EntityID. Indices only track
// which entities currently hold a given property value.
package model
