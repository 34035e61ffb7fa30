// Package otp generates and checks RFC 6238 time-based one-time codes used
// for login step-up. It is a thin layer over github.com/pquerna/otp that
// fixes the period, digit count and tolerance for the whole service.
package otp
