package codec

import (
	"errors"
	"strings"
	"sync"
)

const (
	dynamicPayloadTypeMin uint8 = 96
	dynamicPayloadTypeMax uint8 = 127
)

var ErrNoDynamicPayloadType = errors.New("no dynamic payload type left")

// PayloadTypeRegistry hands out dynamic payload types, reusing what the remote offered.
type PayloadTypeRegistry struct {
	mu      sync.Mutex
	byName  map[string]uint8
	taken   map[uint8]bool
	nextPT  uint8
	formats map[uint8]*Format
}

func NewPayloadTypeRegistry() *PayloadTypeRegistry {
	return &PayloadTypeRegistry{
		byName:  map[string]uint8{},
		taken:   map[uint8]bool{},
		formats: map[uint8]*Format{},
		nextPT:  dynamicPayloadTypeMin,
	}
}

func registryKey(f *Format) string {
	return strings.ToLower(f.String())
}

// Learn records the payload type the remote uses for a format.
func (r *PayloadTypeRegistry) Learn(pt uint8, f *Format) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[registryKey(f)] = pt
	r.taken[pt] = true
	r.formats[pt] = f
}

// LearnAll records every format with a known payload type.
func (r *PayloadTypeRegistry) LearnAll(formats []*Format) {
	for _, f := range formats {
		if f.PayloadType != PayloadTypeUnknown {
			r.Learn(f.PayloadType, f)
		}
	}
}

// PayloadType returns the learned payload type of f or allocates a free dynamic one.
func (r *PayloadTypeRegistry) PayloadType(f *Format) (uint8, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pt, ok := r.byName[registryKey(f)]; ok {
		return pt, nil
	}
	for pt := r.nextPT; pt <= dynamicPayloadTypeMax; pt++ {
		if r.taken[pt] {
			continue
		}
		r.taken[pt] = true
		r.byName[registryKey(f)] = pt
		r.formats[pt] = f
		r.nextPT = pt + 1
		return pt, nil
	}
	return 0, ErrNoDynamicPayloadType
}

// Format returns the format bound to a payload type.
func (r *PayloadTypeRegistry) Format(pt uint8) (*Format, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.formats[pt]
	return f, ok
}
