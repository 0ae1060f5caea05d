// Package auth inspects the credential a client presents to the server.
//
// The server owns the signing key, so tokens are decoded without
// signature verification. Inspection is a pre-flight check only: it lets
// the application warn about an expired token before the server rejects
// it permanently. Opaque (non-JWT) tokens are passed through untouched.
package auth
