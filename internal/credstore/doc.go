// Package credstore persists the developer's session credentials.
//
// Three independent records are kept: the access token, the refresh token and
// the last identity used to log in. Two backends implement Store:
//   - File: one JSON file per record under a private per-user directory,
//     written atomically with owner-only permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential
//     Manager, Linux Secret Service)
//
// Absence of a record is a normal result, never an error. Only I/O failures
// unrelated to absence are reported, as *StorageError.
package credstore
