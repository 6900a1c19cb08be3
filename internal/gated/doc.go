// Package gated implements the two-phase generation protocol: a cheap
// gatekeeper verdict guards every expensive generation call.
package gated
