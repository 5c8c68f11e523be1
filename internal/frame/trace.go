package frame

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// TraceRecord is one frame in a timing trace file.
type TraceRecord struct {
	Frame        uint64  `msgpack:"frame"`
	Elapsed      float64 `msgpack:"elapsed"`
	Input        float64 `msgpack:"input"`
	Simulation   float64 `msgpack:"simulation"`
	RenderPrep   float64 `msgpack:"render_prep"`
	Present      float64 `msgpack:"present"`
	FrameSeconds float64 `msgpack:"frame_seconds"`
	RollingFrame float64 `msgpack:"rolling_frame"`
	FixedSteps   int     `msgpack:"fixed_steps"`
	TargetFPS    float64 `msgpack:"target_fps"`
	VSync        bool    `msgpack:"vsync"`
}

// NewTraceRecord fills the timing fields from info.
func NewTraceRecord(info FrameInfo, targetFPS float64, vsync bool) TraceRecord {
	return TraceRecord{
		Frame:        info.Index,
		Elapsed:      info.ElapsedSeconds,
		Input:        info.Stages.Input,
		Simulation:   info.Stages.Simulation,
		RenderPrep:   info.Stages.RenderPrep,
		Present:      info.Stages.Present,
		FrameSeconds: info.FrameDurationSeconds,
		RollingFrame: info.Rolling.FrameSeconds,
		FixedSteps:   info.FixedSteps,
		TargetFPS:    targetFPS,
		VSync:        vsync,
	}
}

// TraceWriter appends msgpack-encoded records to a stream.
type TraceWriter struct {
	closer io.Closer
	buf    *bufio.Writer
	enc    *msgpack.Encoder
	n      int
}

// OpenTrace creates (or truncates) path for writing.
func OpenTrace(path string) (*TraceWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open trace %s: %w", path, err)
	}
	return NewTraceWriter(f), nil
}

// NewTraceWriter wraps w. If w is an io.Closer, Close closes it.
func NewTraceWriter(w io.Writer) *TraceWriter {
	bw := bufio.NewWriter(w)
	t := &TraceWriter{buf: bw, enc: msgpack.NewEncoder(bw)}
	if c, ok := w.(io.Closer); ok {
		t.closer = c
	}
	return t
}

func (t *TraceWriter) Write(rec TraceRecord) error {
	if err := t.enc.Encode(&rec); err != nil {
		return fmt.Errorf("encode trace frame %d: %w", rec.Frame, err)
	}
	t.n++
	return nil
}

// Records returns how many records were written.
func (t *TraceWriter) Records() int { return t.n }

func (t *TraceWriter) Close() error {
	err := t.buf.Flush()
	if t.closer != nil {
		if cerr := t.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// ReadTrace decodes every record from r.
func ReadTrace(r io.Reader) ([]TraceRecord, error) {
	dec := msgpack.NewDecoder(bufio.NewReader(r))
	var out []TraceRecord
	for {
		var rec TraceRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("decode trace record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
}
