package hca

import "errors"

var (
	// ErrInvalidFormat indicates a malformed or unrecognized HCA header.
	ErrInvalidFormat = errors.New("hca: invalid format")

	// ErrInvalidArgument indicates a caller-supplied value the decoder
	// cannot work with (nil buffer, zero loop count, bad channel grouping).
	ErrInvalidArgument = errors.New("hca: invalid argument")

	// ErrDecodeFailed indicates a block that could not be decoded: short
	// read, missing sync word, or bit-stream overrun.
	ErrDecodeFailed = errors.New("hca: decode failed")

	// ErrChecksum indicates a block or header whose CRC did not verify.
	ErrChecksum = errors.New("hca: checksum mismatch")

	// ErrUnsupported indicates a valid but unsupported stream parameter
	// (unknown cipher or ATH type, MS stereo).
	ErrUnsupported = errors.New("hca: unsupported stream")
)
