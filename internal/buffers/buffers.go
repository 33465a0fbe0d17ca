// Package buffers is the process-wide named paste buffer store.
package buffers

import (
	"fmt"
	"strings"

	"github.com/pweiskircher/cmux/internal/limits"
	"github.com/pweiskircher/cmux/internal/muxerr"
	"github.com/pweiskircher/cmux/internal/sessionpolicy"
)

// Info describes a stored buffer without its content.
type Info struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Store keeps buffers newest first. Setting an existing name replaces its
// content and moves it to the front. Access is serialized by the caller.
type Store struct {
	order   []string
	entries map[string][]byte
	next    int
}

func NewStore() *Store {
	return &Store{entries: make(map[string][]byte)}
}

// Set stores data under name. An empty name allocates "bufferN".
func (s *Store) Set(name string, data []byte) (string, error) {
	name, err := sessionpolicy.Name("buffer", name)
	if err != nil {
		return "", err
	}
	if len(data) > limits.BufferMaxBytes {
		return "", muxerr.InvalidArgument("buffer exceeds %d bytes", limits.BufferMaxBytes)
	}
	if name == "" {
		name = s.autoName()
	}
	if _, ok := s.entries[name]; ok {
		s.remove(name)
	}
	s.entries[name] = append([]byte(nil), data...)
	s.order = append([]string{name}, s.order...)
	return name, nil
}

func (s *Store) autoName() string {
	for {
		name := fmt.Sprintf("buffer%d", s.next)
		s.next++
		if _, taken := s.entries[name]; !taken {
			return name
		}
	}
}

// Get returns a copy of a buffer. An empty name means the newest buffer.
func (s *Store) Get(name string) ([]byte, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if len(s.order) == 0 {
			return nil, "", muxerr.NotFound("no buffers")
		}
		name = s.order[0]
	}
	data, ok := s.entries[name]
	if !ok {
		return nil, "", muxerr.NotFound("buffer %s not found", name)
	}
	return append([]byte(nil), data...), name, nil
}

// Delete removes a buffer.
func (s *Store) Delete(name string) error {
	name = strings.TrimSpace(name)
	if _, ok := s.entries[name]; !ok {
		return muxerr.NotFound("buffer %s not found", name)
	}
	s.remove(name)
	return nil
}

func (s *Store) remove(name string) {
	delete(s.entries, name)
	for i, candidate := range s.order {
		if candidate == name {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			return
		}
	}
}

// List returns buffers newest first.
func (s *Store) List() []Info {
	out := make([]Info, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, Info{Name: name, Size: len(s.entries[name])})
	}
	return out
}

// Names returns buffer names newest first.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}
