// Package members models group members and the helpers that build and split
// member lists for bulk membership calls.
package members

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Type classifies a member of a group.
type Type string

const (
	// TypeUser is an individual directory user.
	TypeUser Type = "user"
	// TypeGroup is a nested group.
	TypeGroup Type = "group"
)

// Valid reports whether t is a known member type.
func (t Type) Valid() bool {
	return t == TypeUser || t == TypeGroup
}

// Member identifies one group member.
type Member struct {
	ID   string `json:"id" yaml:"id"`
	Type Type   `json:"type" yaml:"type"`
}

// Generate returns n synthetic user members with unique ids of the form
// "{prefix}|{uuid}".
func Generate(n int, prefix string) []Member {
	if n <= 0 {
		return nil
	}
	if prefix == "" {
		prefix = "loadtest"
	}
	out := make([]Member, n)
	for i := range out {
		out[i] = Member{
			ID:   fmt.Sprintf("%s|%s", prefix, uuid.NewString()),
			Type: TypeUser,
		}
	}
	return out
}

// Chunk splits members into consecutive sublists of at most size elements.
// The sublists share the backing array of members.
func Chunk(list []Member, size int) ([][]Member, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	chunks := make([][]Member, 0, (len(list)+size-1)/size)
	for start := 0; start < len(list); start += size {
		end := start + size
		if end > len(list) {
			end = len(list)
		}
		chunks = append(chunks, list[start:end:end])
	}
	return chunks, nil
}

// File is the on-disk format of a members file.
type File struct {
	Members []Member `json:"members" yaml:"members"`
}

// LoadFile reads a JSON or YAML members file.
func LoadFile(path string) ([]Member, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read members file: %w", err)
	}

	var f File
	// Try JSON first, then YAML
	if err := json.Unmarshal(data, &f); err != nil {
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse members file (must be valid JSON or YAML): %w", err)
		}
	}

	if err := Validate(f.Members); err != nil {
		return nil, err
	}
	return f.Members, nil
}

// WriteFile writes list as a members file. A .json extension selects JSON;
// anything else is written as YAML.
func WriteFile(path string, list []Member) error {
	f := File{Members: list}
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(f, "", "  ")
	} else {
		data, err = yaml.Marshal(f)
	}
	if err != nil {
		return fmt.Errorf("failed to encode members file: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write members file: %w", err)
	}
	return nil
}

// Validate checks that every member has an id and a known type and that no
// id appears twice. A missing type defaults to user.
func Validate(list []Member) error {
	if len(list) == 0 {
		return fmt.Errorf("member list is empty")
	}
	seen := make(map[string]int, len(list))
	for i := range list {
		m := &list[i]
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" {
			return fmt.Errorf("member at index %d missing required field 'id'", i)
		}
		if m.Type == "" {
			m.Type = TypeUser
		}
		if !m.Type.Valid() {
			return fmt.Errorf("member at index %d has unknown type: %s", i, m.Type)
		}
		if prev, ok := seen[m.ID]; ok {
			return fmt.Errorf("member %q appears at index %d and %d", m.ID, prev, i)
		}
		seen[m.ID] = i
	}
	return nil
}
