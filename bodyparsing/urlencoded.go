package bodyparsing

import (
	"bytes"
	"net/http"

	"secwaf/anomaly"
	"secwaf/encoding"
	"secwaf/rules"

	"github.com/rs/zerolog"
)

// MaxPostArgs is the max number of urlencoded fields in a POST request before too_many_post_args is raised.
const MaxPostArgs = 2048

// ScanResult is what a body or argument scan produced.
type ScanResult struct {
	// Buffer holds the values of all urlencoded fields, decoded, separated by '$', with CR and LF replaced by space.
	Buffer []byte

	FieldCount int

	// Parts of a multipart body, in body order.
	Parts []Part

	// Framing describes how well a multipart body follows the expected layout. It is reported as metrics.
	Framing Framing
}

// SplitAndScan splits urlencoded args into values, decodes them into a single buffer, and evaluates rs against that buffer.
// args is not modified.
func SplitAndScan(logger zerolog.Logger, method string, args []byte, rs *rules.RuleSet, cat *anomaly.Catalogue, ctx *rules.MatchContext) (res ScanResult, err error) {
	if len(args) > 0 {
		res.FieldCount = 1 + bytes.Count(args, []byte{'&'})
	}

	buf := make([]byte, len(args))
	copy(buf, args)

	// Values are written to the front of buf. The write position never passes the read position, as decoding never grows a value.
	w := 0
	r := 0
	for r < len(buf) {
		if buf[r] == '&' {
			buf[w] = '$'
			w++
			r++
			continue
		}

		end := len(buf)
		if i := bytes.IndexByte(buf[r:], '&'); i != -1 {
			end = r + i
		}

		if bytes.IndexByte(buf[r:end], 0) != -1 {
			ctx.SetProcessingError(RawNullByteMsg)
			err = ErrRawNullByte
			return
		}

		eq := bytes.IndexByte(buf[r:end], '=')
		if eq == -1 {
			// Flag style key, nothing to decode.
			logger.Debug().Int("pos", r).Msg("Urlencoded segment without '='")
			r = end
			continue
		}

		value := buf[r+eq+1 : end]
		n, nullBytes := encoding.Unescape(value)
		if nullBytes > 0 {
			ctx.SetProcessingError(UncommonHexEncodingMsg)
			err = ErrUncommonHexEncoding
			return
		}

		w += copy(buf[w:], value[:n])
		r = end
	}

	res.Buffer = buf[:w]
	rules.ReplaceCRLF(res.Buffer)

	logger.Debug().Int("fields", res.FieldCount).Int("len", len(res.Buffer)).Msg("Split urlencoded args")

	if method == http.MethodPost && res.FieldCount > MaxPostArgs {
		var stop bool
		stop, err = cat.Check(nil, anomaly.TooManyPostArgs, ctx)
		if stop {
			return
		}
	}

	err = rules.Evaluate(res.Buffer, rs, ctx)
	return
}
