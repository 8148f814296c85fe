package services

import (
	"fmt"
	"unicode/utf8"

	"github.com/fr0stylo/mergelog/internal/app/ports"
)

// DefaultChunkCapacity is the packing capacity in characters for one chunk.
// The sink client enforces its own stricter field limit on top of this.
const DefaultChunkCapacity = 1900

// FormatRecordLine renders one record as a single changelog line. The
// caller guarantees the record was merged; an unmerged record renders with
// an empty merge date.
func FormatRecordLine(record ports.Record) string {
	merged := ""
	if record.MergedAt != nil {
		merged = record.MergedAt.Format("01/02/2006")
	}

	body := record.Body
	if body == "" {
		body = "No description"
	}

	return fmt.Sprintf("PR %d Title: %s | Merged: %s | Body: %s | ", record.Number, record.Title, merged, body)
}

// ChunkRecords packs the rendered record lines, in order, into chunks of at
// most capacity characters. A single line longer than capacity is split
// into consecutive capacity-sized slices, each emitted as its own chunk.
// Concatenating the chunks reproduces the concatenated lines exactly.
// An empty record sequence yields no chunks.
func ChunkRecords(records []ports.Record, capacity int) []string {
	if capacity <= 0 {
		capacity = DefaultChunkCapacity
	}

	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, FormatRecordLine(record))
	}
	return chunkLines(lines, capacity)
}

// Capacity is counted in characters, not bytes, so multi-byte runes are
// never torn at a chunk boundary.
func chunkLines(lines []string, capacity int) []string {
	var chunks []string
	var buffer string
	bufferLen := 0

	for _, line := range lines {
		lineLen := utf8.RuneCountInString(line)
		if bufferLen+lineLen <= capacity {
			buffer += line
			bufferLen += lineLen
			continue
		}

		if buffer != "" {
			chunks = append(chunks, buffer)
			buffer = ""
			bufferLen = 0
		}

		if lineLen > capacity {
			runes := []rune(line)
			for len(runes) > capacity {
				chunks = append(chunks, string(runes[:capacity]))
				runes = runes[capacity:]
			}
			if len(runes) > 0 {
				chunks = append(chunks, string(runes))
			}
			continue
		}

		buffer = line
		bufferLen = lineLen
	}

	if buffer != "" {
		chunks = append(chunks, buffer)
	}

	// Backstop only; the packing above already guarantees the bound.
	for i, chunk := range chunks {
		if utf8.RuneCountInString(chunk) > capacity {
			chunks[i] = string([]rune(chunk)[:capacity])
		}
	}

	return chunks
}
