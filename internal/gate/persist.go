package gate

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hillway/coursegate/internal/store"
)

// SectionState is the persisted progress of one section.
type SectionState struct {
	TimeSpent       int     `json:"timeSpent"`
	MaxScrollPct    float64 `json:"maxScrollPct"`
	ReadingComplete bool    `json:"readingComplete"`
}

// GateState is the persisted progress of a course, keyed by section id.
type GateState struct {
	Sections map[string]SectionState `json:"sections"`
}

// stateStore reads and writes a course's GateState. Every operation is best
// effort: failures are logged and treated as "no prior state" or "write
// dropped".
type stateStore struct {
	kv     store.KV
	key    string
	logger *slog.Logger
}

func (p *stateStore) load(ctx context.Context) GateState {
	st := GateState{Sections: map[string]SectionState{}}
	if p.kv == nil {
		return st
	}

	raw, ok, err := p.kv.Get(ctx, p.key)
	if err != nil {
		p.logger.Warn("warning: failed to load gate state", "key", p.key, "error", err)
		return st
	}
	if !ok {
		return st
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		p.logger.Warn("warning: discarding unreadable gate state", "key", p.key, "error", err)
		return GateState{Sections: map[string]SectionState{}}
	}
	if st.Sections == nil {
		st.Sections = map[string]SectionState{}
	}
	return st
}

// save merges the given sections into the stored state and writes it back
// in a single write. Entries for sections not in the batch are kept.
func (p *stateStore) save(ctx context.Context, sections ...*Section) {
	if p.kv == nil || len(sections) == 0 {
		return
	}

	st := p.load(ctx)
	for _, s := range sections {
		st.Sections[s.ID] = s.state()
	}

	raw, err := json.Marshal(st)
	if err != nil {
		p.logger.Warn("warning: failed to encode gate state", "key", p.key, "error", err)
		return
	}
	if err := p.kv.Set(ctx, p.key, raw); err != nil {
		p.logger.Warn("warning: failed to save gate state", "key", p.key, "error", err)
	}
}

func (p *stateStore) clear(ctx context.Context) {
	if p.kv == nil {
		return
	}
	if err := p.kv.Delete(ctx, p.key); err != nil {
		p.logger.Warn("warning: failed to clear gate state", "key", p.key, "error", err)
	}
}
