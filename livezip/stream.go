package livezip

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/minio/minio-go/v7"
)

// DataStream is a polymorphic asynchronous byte source. Implementations
// must be safe to Open exactly once per value; the Encoder guarantees
// Close is called on every exit path, including errors mid-read.
type DataStream interface {
	// Open acquires whatever resource backs the stream (a file handle, a
	// socket, an HTTP response body). Separated from construction so that
	// late-bound credentials (e.g. a freshly signed URL) can be resolved
	// only once this entry's turn to stream has arrived.
	Open(ctx context.Context) error

	// Read returns up to max bytes. A zero-length, nil-error result
	// denotes end of stream.
	Read(ctx context.Context, max int) ([]byte, error)

	// Close releases the resource acquired by Open.
	Close(ctx context.Context) error
}

// StreamFactory produces a fresh, unopened DataStream. The Encoder calls
// it once per entry, exactly when that entry's turn to stream arrives.
type StreamFactory func() (DataStream, error)

// streamReader adapts a DataStream to io.Reader so it can be driven
// through the same pull-based machinery as everything else in the
// Encoder's output, and so Storage.Wrap (which operates on io.Reader) can
// sit in front of it.
type streamReader struct {
	ctx    context.Context
	stream DataStream
}

func (s *streamReader) Read(p []byte) (int, error) {
	chunk, err := s.stream.Read(s.ctx, len(p))
	if err != nil {
		return 0, err
	}
	if len(chunk) == 0 {
		return 0, io.EOF
	}
	return copy(p, chunk), nil
}

// FileDataStream streams a local file. It is the naive implementation for
// local/offline callers; it mirrors the two-phase
// construct/open shape of the rest of the package even though os.Open has
// no late-bound credentials to defer.
type FileDataStream struct {
	path string
	f    *os.File
}

// NewFileDataStream returns a StreamFactory over the file at path.
func NewFileDataStream(path string) StreamFactory {
	return func() (DataStream, error) {
		return &FileDataStream{path: path}, nil
	}
}

func (f *FileDataStream) Open(ctx context.Context) error {
	file, err := os.Open(f.path)
	if err != nil {
		return err
	}
	f.f = file
	return nil
}

func (f *FileDataStream) Read(ctx context.Context, max int) ([]byte, error) {
	buf := make([]byte, max)
	n, err := f.f.Read(buf)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func (f *FileDataStream) Close(ctx context.Context) error {
	if f.f == nil {
		return nil
	}
	return f.f.Close()
}

// HTTPDataStream streams the body of a GET request against a URL resolved
// at Open time, mirroring the Python original's UrlStream: the URL
// callable is evaluated lazily so a caller can hand over a freshly signed
// URL without holding a live connection across the whole entry list.
type HTTPDataStream struct {
	client *http.Client
	urlFn  func() (string, error)
	body   io.ReadCloser
}

// NewHTTPDataStream returns a StreamFactory that GETs urlFn() when opened.
// A nil client uses http.DefaultClient.
func NewHTTPDataStream(client *http.Client, urlFn func() (string, error)) StreamFactory {
	if client == nil {
		client = http.DefaultClient
	}
	return func() (DataStream, error) {
		return &HTTPDataStream{client: client, urlFn: urlFn}, nil
	}
}

func (h *HTTPDataStream) Open(ctx context.Context) error {
	url, err := h.urlFn()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("livezip: GET %s: unexpected status %s", url, resp.Status)
	}

	h.body = resp.Body
	return nil
}

func (h *HTTPDataStream) Read(ctx context.Context, max int) ([]byte, error) {
	buf := make([]byte, max)
	n, err := h.body.Read(buf)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func (h *HTTPDataStream) Close(ctx context.Context) error {
	if h.body == nil {
		return nil
	}
	return h.body.Close()
}

// S3DataStream streams an object out of an S3-compatible bucket via
// minio-go, the same client the teacher HTTP server already depends on
// for its object storage integration.
type S3DataStream struct {
	client *minio.Client
	bucket string
	key    string
	obj    *minio.Object
}

// NewS3DataStream returns a StreamFactory that opens bucket/key through
// client when the entry's turn to stream arrives.
func NewS3DataStream(client *minio.Client, bucket, key string) StreamFactory {
	return func() (DataStream, error) {
		return &S3DataStream{client: client, bucket: bucket, key: key}, nil
	}
}

func (s *S3DataStream) Open(ctx context.Context) error {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	s.obj = obj
	return nil
}

func (s *S3DataStream) Read(ctx context.Context, max int) ([]byte, error) {
	buf := make([]byte, max)
	n, err := s.obj.Read(buf)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func (s *S3DataStream) Close(ctx context.Context) error {
	if s.obj == nil {
		return nil
	}
	return s.obj.Close()
}
