package index

import "context"

// DefaultBatchSize bounds peak memory during ingestion independent of
// corpus size.
const DefaultBatchSize = 100000

// Writer buffers entries and flushes them to the index in fixed-size
// batches. Not safe for concurrent use; ingestion is single-threaded.
type Writer struct {
	ix        *Index
	batchSize int
	buf       []Entry
	written   int
}

// NewWriter returns a buffered writer over ix. batchSize <= 0 selects
// DefaultBatchSize.
func NewWriter(ix *Index, batchSize int) *Writer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Writer{
		ix:        ix,
		batchSize: batchSize,
		buf:       make([]Entry, 0, batchSize),
	}
}

// Add buffers one entry, flushing if the batch is full.
func (w *Writer) Add(ctx context.Context, e Entry) error {
	w.buf = append(w.buf, e)
	if len(w.buf) >= w.batchSize {
		return w.Flush(ctx)
	}
	return nil
}

// Flush writes any buffered entries. Must be called once after the last Add.
func (w *Writer) Flush(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}
	if err := w.ix.InsertBatch(ctx, w.buf); err != nil {
		return err
	}
	w.written += len(w.buf)
	w.buf = w.buf[:0]
	return nil
}

// Written returns the number of entries flushed so far.
func (w *Writer) Written() int {
	return w.written
}
