// Package oauth turns a third-party authorization-code callback into a
// goAccount.ExternalIdentity.
//
// [GitHub] drives the code exchange with golang.org/x/oauth2 and reads the
// authenticated user from the REST API. [StateSigner] protects the round trip
// against CSRF: the random state is HMAC-signed into a short-lived cookie and
// checked when the provider redirects back.
package oauth
