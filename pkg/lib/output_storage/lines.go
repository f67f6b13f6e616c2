package output_storage

import (
	"bytes"
	"context"
)

// SubscribeLines is Subscribe split into lines without their trailing
// newline. A final line with no newline is delivered when the output stops.
func (s *OutputStorage) SubscribeLines(ctx context.Context, capacity int) <-chan string {
	chunks := s.Subscribe(ctx, capacity)
	lines := make(chan string, capacity)
	go func() {
		defer close(lines)
		send := func(l string) bool {
			select {
			case lines <- l:
				return true
			case <-ctx.Done():
				return false
			}
		}
		var pending []byte
		for chunk := range chunks {
			pending = append(pending, chunk...)
			for {
				i := bytes.IndexByte(pending, '\n')
				if i < 0 {
					break
				}
				if !send(string(bytes.TrimSuffix(pending[:i], []byte{'\r'}))) {
					return
				}
				pending = pending[i+1:]
			}
		}
		if len(pending) > 0 && ctx.Err() == nil {
			send(string(pending))
		}
	}()
	return lines
}
