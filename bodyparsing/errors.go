package bodyparsing

import "errors"

// ErrUncommonHexEncoding is returned when an urlencoded value decodes to a NUL byte.
var ErrUncommonHexEncoding = errors.New("uncommon hex encoding")

// UncommonHexEncodingMsg is the processing error message set on the match context together with ErrUncommonHexEncoding.
const UncommonHexEncodingMsg = "UNCOMMON_HEX_ENCODING"

// ErrRawNullByte is returned when urlencoded args contain a NUL byte that was not percent-encoded.
var ErrRawNullByte = errors.New("raw NUL byte in urlencoded args")

// RawNullByteMsg is the processing error message set on the match context together with ErrRawNullByte.
const RawNullByteMsg = "RAW_NULL_BYTE"

// ErrBoundary is returned when the multipart boundary parameter is missing or invalid, and this was not raised as an anomaly.
var ErrBoundary = errors.New("invalid multipart boundary")

// ErrBoundaryNotFound is returned when the multipart boundary never occurs in the body.
var ErrBoundaryNotFound = errors.New("multipart boundary not found in body")

// ErrTerminatorNotFound is returned when a multipart part is not terminated by a boundary, or a line end is missing.
var ErrTerminatorNotFound = errors.New("multipart part terminator not found")

// ErrDisposition is returned when a Content-Disposition part header cannot be parsed.
var ErrDisposition = errors.New("malformed content-disposition")
