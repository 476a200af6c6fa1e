// ABOUTME: Internal transport bindings for reaching domain tool services.
// ABOUTME: Provides in-process handler dispatch and unix-socket transports.

package dispatch

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"time"
)

// BindingHost is the synthetic hostname used to address calls over a binding.
// The binding itself resolves the physical destination; the host never touches
// the public network.
const BindingHost = "service"

// HandlerBinding routes requests directly into an in-process http.Handler,
// bypassing the network entirely. Used when a domain tool service is mounted
// in the same process as the gateway.
type HandlerBinding struct {
	handler http.Handler
}

// NewHandlerBinding wraps the given handler as a transport binding.
func NewHandlerBinding(h http.Handler) *HandlerBinding {
	return &HandlerBinding{handler: h}
}

// RoundTrip implements http.RoundTripper by serving the request in-process.
func (b *HandlerBinding) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := &bindingRecorder{header: make(http.Header), status: http.StatusOK}
	b.handler.ServeHTTP(rec, req)

	return &http.Response{
		Status:        http.StatusText(rec.status),
		StatusCode:    rec.status,
		Proto:         req.Proto,
		ProtoMajor:    req.ProtoMajor,
		ProtoMinor:    req.ProtoMinor,
		Header:        rec.header,
		Body:          io.NopCloser(bytes.NewReader(rec.body.Bytes())),
		ContentLength: int64(rec.body.Len()),
		Request:       req,
	}, nil
}

// bindingRecorder is a minimal http.ResponseWriter capturing the handler output.
type bindingRecorder struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func (r *bindingRecorder) Header() http.Header {
	return r.header
}

func (r *bindingRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	return r.body.Write(p)
}

func (r *bindingRecorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
}

// NewSocketBinding returns a transport binding that reaches a domain tool
// service over a unix domain socket, the non-public path for co-deployed
// services on the same host.
func NewSocketBinding(socketPath string) http.RoundTripper {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", socketPath)
		},
		DisableCompression: true,
	}
}
