// Package rate implements the Redis fixed-window gate in front of password
// login. Counters use INCR with EXPIRE on the first hit under the key
// <prefix>:ip:<address>.
package rate
