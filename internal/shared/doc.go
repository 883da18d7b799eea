// Package shared holds code used across the yeogiro packages that belongs to
// no single layer.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler for asserting on log output
//   - seed file fixtures for the map and emergency stores
//
// Only test code imports testutil.
package shared
