// Package wfrag splits messages too large for a single packet
// into fixed-size fragments for the packet builder to pack.
package wfrag
