// Package inifile keeps parsed INI files behind integer handles for the
// INILoad, INIGet and INIClose script functions.
package inifile

import (
	"io"
	"log"

	"github.com/neutonm/Amber-Launcher-sub000/internal/container"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
	"gopkg.in/ini.v1"
)

// Store maps handles to loaded files. Handles start at 1; closed handles
// are reused.
type Store struct {
	slots  *container.Array[*ini.File]
	logger *log.Logger
}

// New returns an empty store.
func New(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{slots: container.New[*ini.File](0), logger: logger}
}

// Load parses path and returns its handle.
func (s *Store) Load(path string) (int, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:        true,
		SkipUnrecognizableLines: true,
	}, path)
	if err != nil {
		return 0, apperrors.WrapWithMetadata(apperrors.CodeCollaborator, "load ini "+path,
			map[string]string{"Action": "Loading " + path}, err)
	}

	index := s.slots.FindByPredicate(func(f *ini.File, _ any) bool { return f == nil }, nil)
	if index == container.NotFound {
		if err := s.slots.PushBack(f); err != nil {
			return 0, err
		}
		index = s.slots.Len() - 1
	} else if err := s.slots.Set(index, f); err != nil {
		return 0, err
	}
	s.logger.Printf("ini %s loaded as handle %d", path, index+1)
	return index + 1, nil
}

// Close forgets handle. It reports whether the handle was open.
func (s *Store) Close(handle int) bool {
	if s.file(handle) == nil {
		return false
	}
	_ = s.slots.Set(handle-1, nil)
	return true
}

// Get returns the value of key in section. An empty section names the
// keys before the first section header.
func (s *Store) Get(handle int, section, key string) (string, bool) {
	f := s.file(handle)
	if f == nil {
		return "", false
	}
	sec, err := f.GetSection(section)
	if err != nil || !sec.HasKey(key) {
		return "", false
	}
	return sec.Key(key).String(), true
}

// Open returns the number of open handles.
func (s *Store) Open() int {
	open := 0
	for _, f := range s.slots.All() {
		if f != nil {
			open++
		}
	}
	return open
}

func (s *Store) file(handle int) *ini.File {
	f, err := s.slots.Get(handle - 1)
	if err != nil {
		return nil
	}
	return f
}
