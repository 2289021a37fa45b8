package wpacket

import "fmt"

// SingleTooLargeError is returned from [Builder.BuildPackets]
// when a single message's encoded form cannot fit
// even a freshly opened packet.
// Callers should have fragmented any payload longer than FragmentSize.
type SingleTooLargeError struct {
	EncodedLen int
}

func (e SingleTooLargeError) Error() string {
	return fmt.Sprintf(
		"message of encoded length %d cannot fit an empty packet", e.EncodedLen,
	)
}

// FragmentTooLargeError is returned from [Builder.BuildPackets]
// when a fragment's payload exceeds FragmentSize,
// indicating a misbehaving fragmentation step.
type FragmentTooLargeError struct {
	Len int
}

func (e FragmentTooLargeError) Error() string {
	return fmt.Sprintf(
		"fragment payload of %d bytes exceeds fragment size %d",
		e.Len, FragmentSize,
	)
}
