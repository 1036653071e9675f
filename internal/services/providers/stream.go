package providers

import (
	"bytes"
	"net"
	"net/http"
	"time"
)

// NewHTTPClient builds the shared upstream client. It deliberately has
// no total timeout: streaming responses stay open for as long as the
// upstream keeps sending, and buffered calls are bounded by the
// caller's context instead. Zero arguments pick the defaults.
func NewHTTPClient(connectTimeout, headerTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}
	if headerTimeout <= 0 {
		headerTimeout = 2 * time.Minute
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   connectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: headerTimeout,
		},
	}
}

var dataPrefix = []byte("data:")

// StreamInterceptor feeds SSE payload lines to a parser while the raw
// bytes flow to the client elsewhere. Chunks arrive on arbitrary
// boundaries, so partial lines are carried until their newline shows
// up. It never rewrites the stream.
type StreamInterceptor struct {
	parser StreamParser
	rest   []byte
}

func NewStreamInterceptor(parser StreamParser) *StreamInterceptor {
	return &StreamInterceptor{parser: parser}
}

// Observe consumes one raw chunk as read from the upstream body.
func (si *StreamInterceptor) Observe(chunk []byte) {
	data := chunk
	if len(si.rest) > 0 {
		data = append(si.rest, chunk...)
		si.rest = nil
	}

	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		si.feedLine(data[:idx])
		data = data[idx+1:]
	}

	if len(data) > 0 {
		si.rest = append([]byte(nil), data...)
	}
}

// Finish flushes any trailing partial line and reports the accumulated
// usage. Call it once, after the last Observe.
func (si *StreamInterceptor) Finish() StreamUsage {
	if len(si.rest) > 0 {
		si.feedLine(si.rest)
		si.rest = nil
	}
	return si.parser.Usage()
}

func (si *StreamInterceptor) feedLine(line []byte) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if !bytes.HasPrefix(line, dataPrefix) {
		return
	}
	payload := bytes.TrimSpace(line[len(dataPrefix):])
	if len(payload) == 0 {
		return
	}
	si.parser.Observe(payload)
}
