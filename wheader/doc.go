// Package wheader contains the packet header codec and the header manager,
// which issues sequenced headers for outbound packets and tracks
// acknowledgement state piggybacked on inbound headers.
package wheader
