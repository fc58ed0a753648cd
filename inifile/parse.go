// Package inifile parses the project's ini-style configuration files.
// Sections and keys are case-insensitive; values keep their case.
package inifile

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// File is a parsed ini file. Section order is preserved.
type File struct {
	Sections []Section
}

// Section is one [name] block with its key-value pairs in file order.
type Section struct {
	Name   string
	Values []KeyValue
}

// KeyValue is a single key = value line.
type KeyValue struct {
	Key   string
	Value string
}

// Parse reads an ini file. Blank lines and lines starting with "#" or ";"
// are skipped, as are key-value lines appearing before any section header.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	var current *Section

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			f.Sections = append(f.Sections, Section{
				Name: strings.ToLower(strings.Trim(line, "[]")),
			})
			current = &f.Sections[len(f.Sections)-1]
			continue
		}

		if current == nil {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		current.Values = append(current.Values, KeyValue{
			Key:   strings.ToLower(strings.TrimSpace(key)),
			Value: strings.TrimSpace(value),
		})
	}

	return f, scanner.Err()
}

// ParseFile reads and parses an ini file from disk.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Section returns the named section, or nil.
func (f *File) Section(name string) *Section {
	name = strings.ToLower(name)
	for i := range f.Sections {
		if f.Sections[i].Name == name {
			return &f.Sections[i]
		}
	}
	return nil
}

// Get returns the last value for a key in a section, or "" when the section
// or key is absent.
func (f *File) Get(section, key string) string {
	s := f.Section(section)
	if s == nil {
		return ""
	}
	return s.Get(key)
}

// Lookup returns the last value for a key in a section and whether it was
// present, distinguishing an empty value from a missing key.
func (f *File) Lookup(section, key string) (string, bool) {
	s := f.Section(section)
	if s == nil {
		return "", false
	}
	return s.Lookup(key)
}

// Get returns the last value for key, or "".
func (s *Section) Get(key string) string {
	v, _ := s.Lookup(key)
	return v
}

// Lookup returns the last value for key and whether it was present.
func (s *Section) Lookup(key string) (string, bool) {
	key = strings.ToLower(key)
	var value string
	var found bool
	for _, kv := range s.Values {
		if kv.Key == key {
			value = kv.Value
			found = true
		}
	}
	return value, found
}
