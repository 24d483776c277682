package journal

import (
	"bufio"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Emitter writes journal records as JSONL to a file or writer.
type Emitter struct {
	config *EmitterConfig
	writer *bufio.Writer
	file   *os.File
	mu     sync.Mutex

	totalWritten atomic.Int64
	writeErrors  atomic.Int64
}

// NewEmitter creates an emitter appending to config.OutputPath.
func NewEmitter(config *EmitterConfig) (*Emitter, error) {
	if config == nil {
		config = DefaultEmitterConfig()
	}

	e := &Emitter{
		config: config,
	}

	if config.OutputPath != "" {
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		e.file = f
		e.writer = bufio.NewWriterSize(f, config.BufferSize)
	}

	return e, nil
}

// NewEmitterWithWriter creates an emitter over an arbitrary writer.
// Useful for testing.
func NewEmitterWithWriter(w io.Writer, config *EmitterConfig) *Emitter {
	if config == nil {
		config = DefaultEmitterConfig()
	}

	return &Emitter{
		config: config,
		writer: bufio.NewWriterSize(w, config.BufferSize),
	}
}

// Emit writes a single record as one JSON line.
func (e *Emitter) Emit(record *Record) error {
	data, err := record.MarshalJSONL()
	if err != nil {
		e.writeErrors.Add(1)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.writer == nil {
		return nil
	}

	if _, err := e.writer.Write(data); err != nil {
		e.writeErrors.Add(1)
		return err
	}
	if err := e.writer.WriteByte('\n'); err != nil {
		e.writeErrors.Add(1)
		return err
	}

	if e.config.SyncOnWrite {
		if err := e.writer.Flush(); err != nil {
			e.writeErrors.Add(1)
			return err
		}
		if e.file != nil {
			if err := e.file.Sync(); err != nil {
				e.writeErrors.Add(1)
				return err
			}
		}
	}

	e.totalWritten.Add(1)
	return nil
}

// Flush forces buffered records to the underlying writer.
func (e *Emitter) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.writer == nil {
		return nil
	}
	return e.writer.Flush()
}

// TotalWritten returns the count of records written so far.
func (e *Emitter) TotalWritten() int64 {
	return e.totalWritten.Load()
}

// Close flushes and closes the underlying file, if any.
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.writer != nil {
		if err := e.writer.Flush(); err != nil {
			return err
		}
	}
	if e.file != nil {
		return e.file.Close()
	}
	return nil
}
