package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const pollInterval = 250 * time.Millisecond

// TailOptions controls a read. A negative Offset returns the last Limit
// matching records; otherwise reading starts at Offset. With Wait set and
// nothing new to return, Tail polls until a record arrives or Wait elapses.
type TailOptions struct {
	Offset int64
	Limit  int
	Wait   time.Duration
	Filter Filter
}

// TailResult carries the records read and the offset to resume from.
type TailResult struct {
	Records []Record
	Offset  int64
}

// Tail reads records from the log file at path. A missing file yields an
// empty result at offset zero.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	var result TailResult
	if opts.Offset < 0 {
		result.Records, result.Offset, err = readLast(path, opts.Limit, opts.Filter)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			// Truncated or rotated; resume from the start.
			offset = 0
		}
		result.Records, result.Offset, err = readForward(path, offset, opts.Filter)
	}
	if err != nil {
		return result, err
	}
	if len(result.Records) == 0 && opts.Wait > 0 {
		return waitForRecords(ctx, path, result.Offset, opts.Wait, opts.Filter)
	}
	return result, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}

// readLast keeps the newest limit matching records in a ring buffer.
func readLast(path string, limit int, filter Filter) ([]Record, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, offset, nil
	}

	ring := make([]Record, limit)
	count, next := 0, 0
	scanner := newScanner(file)
	for scanner.Scan() {
		record := ParseRecord(scanner.Text())
		if !filter.Match(record) {
			continue
		}
		ring[next] = record
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}

	records := make([]Record, count)
	if count == limit {
		for i := range count {
			records[i] = ring[(next+i)%limit]
		}
	} else {
		copy(records, ring[:count])
	}
	return records, offset, nil
}

// readForward returns every matching complete line after offset. A trailing
// partial line is left for the next read.
func readForward(path string, offset int64, filter Filter) ([]Record, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var records []Record
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		record := ParseRecord(line[:len(line)-1])
		if filter.Match(record) {
			records = append(records, record)
		}
	}
	return records, offset, nil
}

func waitForRecords(ctx context.Context, path string, offset int64, wait time.Duration, filter Filter) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}

		records, next, err := readForward(path, result.Offset, filter)
		if err != nil {
			return result, err
		}
		result.Offset = next
		if len(records) > 0 {
			result.Records = records
			return result, nil
		}
		if time.Now().After(deadline) {
			return result, nil
		}
	}
}
