// Package notify delivers out-of-band messages such as login codes. [SMTP]
// sends real mail; [Log] writes the message to a zap logger for local
// development.
package notify
