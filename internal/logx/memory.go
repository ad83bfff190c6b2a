package logx

import (
	"sync"
)

// Level of a recorded entry.
type Level string

const (
	LevelTrace Level = "trace"
	LevelError Level = "error"
)

// Entry is one recorded log call.
type Entry struct {
	Level  Level
	Msg    string
	Err    error
	Fields map[string]any
}

// Memory stores log calls in-memory for tests.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Trace(msg string, kv ...any) { m.add(Entry{Level: LevelTrace, Msg: msg, Fields: fields(kv)}) }

func (m *Memory) Error(err error, msg string, kv ...any) {
	m.add(Entry{Level: LevelError, Msg: msg, Err: err, Fields: fields(kv)})
}

func (m *Memory) add(e Entry) {
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Errors returns only error-level entries.
func (m *Memory) Errors() []Entry { return m.filter(func(e Entry) bool { return e.Level == LevelError }) }

// Messages returns entries with the given message.
func (m *Memory) Messages(msg string) []Entry {
	return m.filter(func(e Entry) bool { return e.Msg == msg })
}

func (m *Memory) filter(keep func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range m.Entries() {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func fields(kv []any) map[string]any {
	if len(kv) == 0 {
		return nil
	}
	out := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		out[k] = kv[i+1]
	}
	return out
}
