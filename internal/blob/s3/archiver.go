package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// archiveBatchSize is the number of stream entries read per XREAD call while
// draining the event stream.
const archiveBatchSize = 500

// Archiver drains the durable marketplace event stream into S3. Events are
// already JSON-encoded on the stream, so an archive file is plain JSONL.
//
// The stream is trimmed by Redis at an approximate maximum length; archiving
// preserves the full history beyond that horizon. The caller owns the cursor
// and passes the last archived stream ID back in on the next run.
type Archiver struct {
	bus    domain.EventBus
	writer *Writer
	stream string
}

// NewArchiver creates an Archiver that reads from the named stream and
// uploads archives through the given writer.
func NewArchiver(bus domain.EventBus, writer *Writer, stream string) *Archiver {
	return &Archiver{
		bus:    bus,
		writer: writer,
		stream: stream,
	}
}

// Archive reads every stream entry after lastID, uploads them as a single
// JSONL object, and returns the number of archived events together with the
// ID of the last one. Use "0" as lastID to archive from the beginning of the
// stream. When no new entries exist it returns (0, lastID, nil) without
// uploading anything.
func (a *Archiver) Archive(ctx context.Context, lastID string, now time.Time) (int64, string, error) {
	if lastID == "" {
		lastID = "0"
	}

	var buf bytes.Buffer
	var count int64
	cursor := lastID

	for {
		messages, err := a.bus.StreamRead(ctx, a.stream, cursor, archiveBatchSize)
		if err != nil {
			return count, cursor, fmt.Errorf("s3blob: archive read after %s: %w", cursor, err)
		}
		if len(messages) == 0 {
			break
		}
		for _, msg := range messages {
			buf.Write(msg.Payload)
			buf.WriteByte('\n')
			cursor = msg.ID
			count++
		}
		if len(messages) < archiveBatchSize {
			break
		}
	}

	if count == 0 {
		return 0, lastID, nil
	}

	path := archivePath(now, cursor)
	if err := a.writer.PutMultipart(ctx, path, &buf, minPartSize); err != nil {
		return count, lastID, fmt.Errorf("s3blob: archive upload %s: %w", path, err)
	}

	return count, cursor, nil
}

// archivePath builds the S3 key for an archive file, partitioned by day and
// suffixed with the last stream ID it contains.
//
//	archive/events/2026-09-01/1756687200000-0.jsonl
func archivePath(now time.Time, lastID string) string {
	return fmt.Sprintf("archive/events/%s/%s.jsonl", now.Format("2006-01-02"), lastID)
}
