// Package jwt issues and parses the signed session tokens handed to clients
// after login. Tokens carry the user id, a unique jti, iat and exp; there is no
// refresh token and expiry is final.
package jwt
