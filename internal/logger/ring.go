// internal/logger/ring.go
package logger

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"
)

// Entry – запись лога в кольцевом буфере.
type Entry struct {
	Timestamp time.Time
	Level     string
	Message   string
	Fields    map[string]interface{}
}

// Ring – потокобезопасный кольцевой буфер последних записей лога.
// Реализует io.Writer для JSON-ядра zap, чтобы дашборд не писал в терминал.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	wrapped bool
	total   uint64
}

func NewRing(size int) *Ring {
	if size <= 0 {
		size = 200
	}
	return &Ring{entries: make([]Entry, size)}
}

// Write принимает одну или несколько JSON-строк.
func (r *Ring) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimSpace(p), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var raw map[string]interface{}
		if err := json.Unmarshal(line, &raw); err != nil {
			r.Add(Entry{Timestamp: time.Now(), Level: "INFO", Message: string(line)})
			continue
		}
		e := Entry{Timestamp: time.Now(), Fields: map[string]interface{}{}}
		for k, v := range raw {
			switch k {
			case "level":
				e.Level, _ = v.(string)
			case "msg":
				e.Message, _ = v.(string)
			case "timestamp":
				if s, ok := v.(string); ok {
					if ts, err := time.Parse("2006-01-02T15:04:05.000Z0700", s); err == nil {
						e.Timestamp = ts
					}
				}
			case "caller", "logger", "stacktrace":
			default:
				e.Fields[k] = v
			}
		}
		r.Add(e)
	}
	return len(p), nil
}

func (r *Ring) Sync() error { return nil }

// Add добавляет запись, вытесняя самую старую.
func (r *Ring) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.wrapped = true
	}
	r.total++
}

// Recent возвращает до limit последних записей, от старых к новым.
func (r *Ring) Recent(limit int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	start := 0
	if r.wrapped {
		count = len(r.entries)
		start = r.next
	}
	if limit > 0 && limit < count {
		start += count - limit
		count = limit
	}
	out := make([]Entry, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, r.entries[(start+i)%len(r.entries)])
	}
	return out
}

// Total – сколько записей прошло через буфер.
func (r *Ring) Total() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}
