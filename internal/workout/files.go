package workout

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type programFile struct {
	Programs []Program `yaml:"programs"`
}

// DecodePrograms reads a YAML program file, fills in missing identifiers and
// defaults, and validates every program.
func DecodePrograms(r io.Reader) ([]Program, error) {
	var file programFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode programs: %w", err)
	}

	for i := range file.Programs {
		p := &file.Programs[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.RepeatCount == 0 {
			p.RepeatCount = 1
		}
		if p.Intervals == nil {
			p.Intervals = []Interval{}
		}
		for j := range p.Intervals {
			if p.Intervals[j].ID == "" {
				p.Intervals[j].ID = uuid.NewString()
			}
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Programs, nil
}

// EncodePrograms writes programs in the format DecodePrograms reads
func EncodePrograms(w io.Writer, programs []Program) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(programFile{Programs: programs}); err != nil {
		return fmt.Errorf("encode programs: %w", err)
	}
	return enc.Close()
}
