// Package resilience guards calls to services that can misbehave.
//
// The circuit breaker wraps remote document fetches: repeated failures
// open the circuit and further calls fail fast instead of tying up
// connections on a host that is down. After a cool-down the breaker
// lets a probe through and closes again once probes succeed.
package resilience
