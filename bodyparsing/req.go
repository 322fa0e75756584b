package bodyparsing

import (
	"fmt"
	"strconv"
	"strings"

	"secwaf/anomaly"
	"secwaf/rules"
	"secwaf/waf"

	"github.com/rs/zerolog"
)

const urlencodedContentType = "application/x-www-form-urlencoded"

// RequestContentParser is both the waf.RequestBodyParser and the waf.ArgsScanner.
type RequestContentParser interface {
	waf.RequestBodyParser
	waf.ArgsScanner
}

// ParserOption configures a RequestContentParser.
type ParserOption func(*reqBodyParserImpl)

// WithMetrics reports multipart framing irregularities to m.
func WithMetrics(m waf.Metrics) ParserOption {
	return func(r *reqBodyParserImpl) {
		r.metrics = m
	}
}

// NewRequestBodyParser creates a parser that raises anomalies from the given catalogue.
func NewRequestBodyParser(lengthLimits waf.LengthLimits, anomalies *anomaly.Catalogue, opts ...ParserOption) RequestContentParser {
	r := &reqBodyParserImpl{
		lengthLimits: lengthLimits,
		anomalies:    anomalies,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

type reqBodyParserImpl struct {
	lengthLimits waf.LengthLimits
	anomalies    *anomaly.Catalogue
	metrics      waf.Metrics
}

func (r *reqBodyParserImpl) LengthLimits() waf.LengthLimits {
	return r.lengthLimits
}

func (r *reqBodyParserImpl) ScanArgs(logger zerolog.Logger, method string, args []byte, argsRules *rules.RuleSet, ctx *rules.MatchContext) (fieldCount int, err error) {
	res, err := SplitAndScan(logger, method, args, argsRules, r.anomalies, ctx)
	fieldCount = res.FieldCount
	return
}

func (r *reqBodyParserImpl) Parse(logger zerolog.Logger, req waf.RequestBodyParserHTTPRequest, argsRules *rules.RuleSet, ctx *rules.MatchContext, cb waf.ParsedBodyFieldCb) (err error) {
	if ctx.Matched {
		return
	}

	// Find the content-length and content-type
	contentLength, contentType, err := r.getLengthAndTypeFromHeaders(req)
	if err != nil {
		return
	}

	// If the headers already up front said that the request is going to be too large, there's no point in starting to scan the body.
	if contentLength > r.lengthLimits.MaxLengthTotal {
		err = waf.ErrTotalBytesLimitExceeded
		return
	}

	if contentType == "" {
		return r.noContent(logger, "no content type", ctx)
	}

	if !req.BodyInMemory() {
		err = waf.ErrBodyNotInMemory
		return
	}

	body, err := readAllLimited(req.BodyReader(), r.lengthLimits)
	if err != nil {
		return
	}

	if len(body) == 0 {
		return r.noContent(logger, "empty body", ctx)
	}

	switch {

	case hasPrefixFold([]byte(contentType), multipartFormData):
		var res ScanResult
		res, err = ScanMultipart(logger, contentType, body, r.anomalies, ctx)
		r.reportFraming(res.Framing)

		// Parts seen before a parse failure are still scanned.
		for _, p := range res.Parts {
			if ctx.Matched {
				break
			}

			if p.IsFile {
				continue
			}

			if cbErr := cb(waf.MultipartFormDataContent, string(p.Name), p.Body); cbErr != nil && err == nil {
				err = cbErr
			}
		}

	case hasPrefixFold([]byte(contentType), urlencodedContentType):
		if len(body) > r.lengthLimits.MaxPostArgsLength {
			logger.Debug().Int("len", len(body)).Int("limit", r.lengthLimits.MaxPostArgsLength).Msg("Urlencoded body too long")
			err = waf.ErrPostArgsTooLong
			return
		}

		var res ScanResult
		res, err = SplitAndScan(logger, req.Method(), body, argsRules, r.anomalies, ctx)
		if err != nil || ctx.Matched {
			break
		}

		err = cb(waf.URLEncodedContent, "", res.Buffer)

	default:
		// Other body types are not scanned.
		logger.Debug().Str("contentType", contentType).Msg("Body content type not scanned")
	}

	if err != nil {
		err = fmt.Errorf("%v body scanning error: %w", contentType, err)
	}

	return
}

func (r *reqBodyParserImpl) reportFraming(f Framing) {
	if r.metrics == nil || f.Boundaries == 0 {
		return
	}

	for _, k := range f.Irregularities() {
		r.metrics.MultipartIrregularity(k)
	}
}

// noContent raises uncommon_content_type for a body that has no content type or no content.
// If the anomaly is disabled, waf.ErrNoContentType is returned.
func (r *reqBodyParserImpl) noContent(logger zerolog.Logger, reason string, ctx *rules.MatchContext) (err error) {
	logger.Debug().Str("reason", reason).Msg("Body without content")

	o, err := r.anomalies.Escalate(nil, anomaly.UncommonContentType, ctx)
	if err == nil && o != anomaly.Matched {
		err = waf.ErrNoContentType
	}
	return
}

func (r *reqBodyParserImpl) getLengthAndTypeFromHeaders(req waf.RequestBodyParserHTTPRequest) (contentLength int, contentType string, err error) {
	for _, h := range req.Headers() {
		k := h.Key()
		v := h.Value()

		if strings.EqualFold("content-length", k) {
			contentLength, err = strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				err = fmt.Errorf("failed to parse Content-Length header")
				return
			}
		}

		if strings.EqualFold("content-type", k) {
			contentType = strings.TrimSpace(v)
		}
	}

	return
}
