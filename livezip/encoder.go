package livezip

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// trailerSize is the combined length of the ZIP64 EOCD record, its
// locator, and the classic EOCD record: 56 + 20 + 22.
const trailerSize = 56 + 20 + 22

type state int

const (
	stateUnprepared state = iota
	statePrepared
	stateStreaming
	stateDone
)

// Plan is the output of Encoder.Prepare: the absolute byte offset of each
// entry's local header, and the archive's total size.
type Plan struct {
	// Offsets[i] is the absolute byte offset of entry i's local file
	// header. Offsets[0] is always 0, and the sequence is strictly
	// increasing.
	Offsets []uint64

	// CDOffset is the absolute byte offset where the central directory
	// begins.
	CDOffset uint64

	// CDSize is the total byte length of the central directory.
	CDSize uint64

	// TrailerSize is the combined length of the ZIP64 EOCD record, its
	// locator, and the classic EOCD record.
	TrailerSize uint64

	// TotalSize is the full archive length: CDOffset + CDSize + TrailerSize.
	TotalSize uint64
}

// Encoder plans and produces a ZIP64 archive for a list of FileEntry,
// streamed lazily as an io.Reader. It follows the Unprepared -> Prepared ->
// Streaming -> Done state machine from spec.md §3: GetData before Prepare
// fails, and Prepare is idempotent.
type Encoder struct {
	entries []*FileEntry
	state   state
	plan    *Plan
}

// NewEncoder constructs an Encoder over entries. The slice is owned by the
// Encoder and must not be mutated while prepare/streaming are in progress.
func NewEncoder(entries []*FileEntry) *Encoder {
	return &Encoder{entries: entries}
}

// Prepare computes the Plan: offsets for every entry plus the total
// archive size. It is idempotent — calling it again after the first call
// is a no-op.
func (e *Encoder) Prepare() error {
	if e.state != stateUnprepared {
		return nil
	}

	for _, entry := range e.entries {
		if n := len([]byte(entry.Path)); n > 0xFFFF {
			return &NameTooLongError{Path: entry.Path, Length: n}
		}
	}

	offsets := make([]uint64, len(e.entries))
	var running uint64

	for i, entry := range e.entries {
		offsets[i] = running
		nameLen := len([]byte(entry.Path))
		running += uint64(localHeaderLen(nameLen)) + entry.CompressedSize
	}

	cdOffset := running
	var cdSize uint64
	for _, entry := range e.entries {
		cdSize += uint64(centralHeaderLen(len([]byte(entry.Path))))
	}

	plan := &Plan{
		Offsets:     offsets,
		CDOffset:    cdOffset,
		CDSize:      cdSize,
		TrailerSize: trailerSize,
		TotalSize:   cdOffset + cdSize + trailerSize,
	}

	e.plan = plan
	e.state = statePrepared

	return nil
}

// TotalSize returns the planned archive length in bytes. Prepare must have
// been called first.
func (e *Encoder) TotalSize() (uint64, error) {
	if e.plan == nil {
		return 0, ErrPlanMissing
	}
	return e.plan.TotalSize, nil
}

// Plan returns the computed Plan. Prepare must have been called first.
func (e *Encoder) Plan() (*Plan, error) {
	if e.plan == nil {
		return nil, ErrPlanMissing
	}
	return e.plan, nil
}

// GetData returns a lazy io.Reader over the archive bytes. Prepare must
// have been called first. Only one DataStream is open at any instant;
// entries are read strictly in order. If ctx is cancelled mid-stream, the
// currently open DataStream is closed before the context error is
// returned from Read.
func (e *Encoder) GetData(ctx context.Context) (io.Reader, error) {
	if e.plan == nil {
		return nil, ErrPlanMissing
	}
	if e.state == stateStreaming || e.state == stateDone {
		return nil, fmt.Errorf("livezip: GetData already called for this Encoder")
	}

	e.state = stateStreaming

	startPhase := phaseHeader
	if len(e.entries) == 0 {
		startPhase = phaseCentralDirectory
	}

	return &archiveReader{
		ctx:     ctx,
		entries: e.entries,
		plan:    e.plan,
		phase:   startPhase,
		onDone:  func() { e.state = stateDone },
	}, nil
}

type phase int

const (
	phaseHeader phase = iota
	phasePayload
	phaseCentralDirectory
	phaseTrailer
	phaseDone
)

// archiveReader is the sole producer of archive bytes: a pull-based state
// machine advanced exclusively by Read calls, matching spec.md §5's "the
// consumer drives progress by pulling" — the same idiom the teacher
// already relies on when it copies bytes from an S3 object into an
// http.ResponseWriter.
type archiveReader struct {
	ctx     context.Context
	entries []*FileEntry
	plan    *Plan
	onDone  func()

	idx   int
	phase phase

	sync    *bytes.Reader // currently pending synchronous bytes (headers, CD, trailer)
	payload io.Reader     // currently active wrapped payload reader, nil when not streaming one
	stream  DataStream    // currently open DataStream, nil when none is open
	got     uint64        // bytes read from payload for the current entry so far

	cdBuf      *bytes.Reader
	trailerBuf *bytes.Reader

	err error
}

func (r *archiveReader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}

	for {
		if err := r.ctx.Err(); err != nil {
			r.closeCurrent()
			r.err = err
			return 0, r.err
		}

		switch r.phase {
		case phaseHeader:
			if r.sync == nil {
				entry := r.entries[r.idx]
				r.sync = bytes.NewReader(buildLocalFileHeader(entry))
			}
			n, err := r.sync.Read(p)
			if err == io.EOF || r.sync.Len() == 0 {
				r.sync = nil
				r.phase = phasePayload
				if n > 0 {
					return n, nil
				}
				continue
			}
			return n, err

		case phasePayload:
			entry := r.entries[r.idx]
			if r.payload == nil {
				stream, err := entry.Open()
				if err != nil {
					r.err = &UpstreamIOError{Path: entry.Path, Err: err}
					return 0, r.err
				}
				if err := stream.Open(r.ctx); err != nil {
					r.err = &UpstreamIOError{Path: entry.Path, Err: err}
					return 0, r.err
				}
				r.stream = stream
				r.got = 0
				r.payload = entry.Storage.Wrap(&streamReader{ctx: r.ctx, stream: stream}, entry.UncompressedSize)
			}

			n, err := r.payload.Read(p)
			r.got += uint64(n)

			if err != nil && err != io.EOF {
				r.closeCurrent()
				r.err = &UpstreamIOError{Path: entry.Path, Err: err}
				return 0, r.err
			}

			if err == io.EOF || n == 0 {
				closeErr := r.stream.Close(r.ctx)
				r.payload = nil
				r.stream = nil

				if r.got != entry.CompressedSize {
					r.err = &SizeMismatchError{Path: entry.Path, Declared: entry.CompressedSize, Got: r.got}
					return 0, r.err
				}
				if closeErr != nil {
					r.err = &UpstreamIOError{Path: entry.Path, Err: closeErr}
					return 0, r.err
				}

				r.idx++
				if r.idx < len(r.entries) {
					r.phase = phaseHeader
				} else {
					r.phase = phaseCentralDirectory
				}

				if n > 0 {
					return n, nil
				}
				continue
			}

			return n, nil

		case phaseCentralDirectory:
			if r.cdBuf == nil {
				buf := new(bytes.Buffer)
				for i, entry := range r.entries {
					buf.Write(buildCentralDirectoryHeader(entry, r.plan.Offsets[i]))
				}
				r.cdBuf = bytes.NewReader(buf.Bytes())
			}
			n, err := r.cdBuf.Read(p)
			if err == io.EOF || r.cdBuf.Len() == 0 {
				r.cdBuf = nil
				r.phase = phaseTrailer
				if n > 0 {
					return n, nil
				}
				continue
			}
			return n, err

		case phaseTrailer:
			if r.trailerBuf == nil {
				buf := new(bytes.Buffer)
				buf.Write(buildZip64EOCDRecord(uint64(len(r.entries)), r.plan.CDSize, r.plan.CDOffset))
				buf.Write(buildZip64EOCDLocator(r.plan.CDOffset + r.plan.CDSize))
				buf.Write(buildEOCD())
				r.trailerBuf = bytes.NewReader(buf.Bytes())
			}
			n, err := r.trailerBuf.Read(p)
			if err == io.EOF || r.trailerBuf.Len() == 0 {
				r.trailerBuf = nil
				r.phase = phaseDone
				if r.onDone != nil {
					r.onDone()
				}
				if n > 0 {
					return n, nil
				}
				return 0, io.EOF
			}
			return n, err

		case phaseDone:
			return 0, io.EOF
		}
	}
}

// closeCurrent closes any DataStream left open mid-read, used on the
// cancellation/error exit paths.
func (r *archiveReader) closeCurrent() {
	if r.stream != nil {
		r.stream.Close(r.ctx)
		r.stream = nil
		r.payload = nil
	}
}
