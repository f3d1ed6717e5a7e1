// Package sntp is a client for the Simple Network Time Protocol.
//
// A Driver performs one request/response exchange over a caller-owned
// Transport, stamping the request from a TimestampSource and checking that
// the server echoes the request's transmit timestamp back as its origin
// timestamp. A Sampler repeats independent exchanges with a fixed pause.
// Neither filters nor combines samples, and nothing here adjusts the local
// clock.
package sntp
