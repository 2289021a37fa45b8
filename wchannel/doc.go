// Package wchannel maps named logical channels to numeric IDs
// and accumulates each channel's pending outbound messages
// between packet builds.
package wchannel
