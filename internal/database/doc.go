// Package database provides SQLite storage for the photo index application.
//
// It handles storage and retrieval of:
//   - Indexed photo metadata (paths, timestamps, coordinates, EXIF location text)
//   - Tags and file-tag assignments
//   - The persistent reverse-geocode cache
//
// Filter-chain searches run entirely inside SQLite: the compiled chain SQL
// becomes a "selection" CTE joined against the files table, so large
// libraries are filtered without loading memberships into memory.
//
// The database uses WAL mode for improved concurrent read performance
// and includes automatic schema initialization.
package database
