// Package seed loads a read-only YAML fixture of contacts into a directory.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"address-book/internal/directory"
	errs "address-book/pkg/errors"
	"address-book/pkg/logging"
)

// Entry is one contact in a seed file. Every phone is added with merge
// enabled, so a multi-number entry becomes a single contact.
type Entry struct {
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Phones   []string `yaml:"phones"`
}

// File is the document root:
//
//	contacts:
//	  - name: Alice Smith
//	    category: Personal
//	    phones: ["059-123-4567"]
type File struct {
	Contacts []Entry `yaml:"contacts"`
}

// Result counts accepted and rejected phone numbers.
type Result struct {
	Accepted int
	Rejected int
	// Errors holds one message per rejected number, in file order.
	Errors []string
}

// Load reads and parses a seed file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// LoadFS reads a seed file from fsys, e.g. an embedded sample.
func LoadFS(fsys fs.FS, name string) (*File, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, e := range f.Contacts {
		if len(e.Phones) == 0 {
			return nil, fmt.Errorf("parse seed file: contact %d (%q) has no phones", i+1, e.Name)
		}
	}
	return &f, nil
}

// Apply adds every number of f to svc. Rejections are counted, not fatal.
func Apply(ctx context.Context, svc *directory.Service, f *File, logger *logging.Logger) Result {
	if logger == nil {
		logger = logging.Nop()
	}
	log := logger.WithComponent("seed").Ctx(ctx)

	var res Result
	for _, e := range f.Contacts {
		for _, phone := range e.Phones {
			_, err := svc.Add(ctx, directory.AddRequest{
				Name:       e.Name,
				Category:   e.Category,
				Phone:      phone,
				AllowMerge: true,
			})
			if err != nil {
				res.Rejected++
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", e.Name, errs.MessageOf(err)))
				continue
			}
			res.Accepted++
		}
	}

	log.Info("seed applied",
		logging.Int("accepted", res.Accepted),
		logging.Int("rejected", res.Rejected),
		logging.Int("contacts", svc.Count()))
	return res
}
