// Package logs reads the daemon log file for the CLI's tail view. Reads are
// offset-based so a follower can poll: each call returns new lines plus the
// offset to resume from.
package logs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// TailResult carries log lines and the next read offset.
type TailResult struct {
	Lines  []string
	Offset int64
}

// TailLast returns up to limit lines from the end of the file and the offset
// of the file end. A missing file yields an empty result.
func TailLast(path string, limit int) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return TailResult{}, fmt.Errorf("stat log file: %w", err)
	}
	result := TailResult{Offset: info.Size()}
	if limit <= 0 {
		return result, nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ring := make([]string, limit)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return TailResult{}, fmt.Errorf("read log file: %w", err)
	}

	result.Lines = make([]string, 0, count)
	start := (idx - count + limit) % limit
	for i := 0; i < count; i++ {
		result.Lines = append(result.Lines, ring[(start+i)%limit])
	}
	return result, nil
}

// TailFrom returns complete lines written after offset and the offset of the
// last complete line. A truncated or rotated file resets to the beginning.
func TailFrom(path string, offset int64) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return TailResult{}, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return TailResult{}, fmt.Errorf("seek log file: %w", err)
	}

	result := TailResult{Offset: offset}
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			result.Offset += int64(len(line))
			result.Lines = append(result.Lines, line[:len(line)-1])
			continue
		}
		if errors.Is(err, io.EOF) {
			// Leave a partial trailing line for the next poll.
			return result, nil
		}
		return result, fmt.Errorf("read log file: %w", err)
	}
}
