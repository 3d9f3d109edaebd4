package store

import (
	"context"
	"sync"

	"github.com/rverma/hyperliquid-data/internal/model"
)

// Memory is an in-process Store used by tests and dry runs.
type Memory struct {
	mu          sync.RWMutex
	meta        map[string]string
	snapshot    []model.Instrument
	series      map[string]*model.FundingSeries
	preferences map[string][]string
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		meta:        make(map[string]string),
		series:      make(map[string]*model.FundingSeries),
		preferences: make(map[string][]string),
	}
}

func (m *Memory) GetMeta(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.meta[key]
	return v, ok, nil
}

func (m *Memory) PutMeta(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta[key] = value
	return nil
}

func (m *Memory) GetSnapshot(_ context.Context) ([]model.Instrument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Instrument, len(m.snapshot))
	copy(out, m.snapshot)
	return out, nil
}

func (m *Memory) ReplaceSnapshot(_ context.Context, instruments []model.Instrument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = make([]model.Instrument, len(instruments))
	copy(m.snapshot, instruments)
	return nil
}

func (m *Memory) GetSeries(_ context.Context, coin string) (*model.FundingSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.series[coin]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.History = make([]model.FundingRecord, len(s.History))
	copy(cp.History, s.History)
	return &cp, nil
}

func (m *Memory) PutSeries(_ context.Context, series *model.FundingSeries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *series
	cp.History = make([]model.FundingRecord, len(series.History))
	copy(cp.History, series.History)
	m.series[series.Coin] = &cp
	return nil
}

func (m *Memory) SeriesKeys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.series))
	for k := range m.series {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *Memory) SeriesUpdateTimes(_ context.Context) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64, len(m.series))
	for k, s := range m.series {
		out[k] = s.LastUpdate
	}
	return out, nil
}

func (m *Memory) GetPreference(_ context.Context, name string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := m.preferences[name]
	out := make([]string, len(values))
	copy(out, values)
	return out, nil
}

func (m *Memory) PutPreference(_ context.Context, name string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]string, len(values))
	copy(cp, values)
	m.preferences[name] = cp
	return nil
}

func (m *Memory) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{Coins: len(m.series)}
	for _, s := range m.series {
		st.TotalRecords += int64(s.RecordCount)
		if st.OldestUpdate == 0 || s.LastUpdate < st.OldestUpdate {
			st.OldestUpdate = s.LastUpdate
		}
		if s.LastUpdate > st.NewestUpdate {
			st.NewestUpdate = s.LastUpdate
		}
	}
	return st, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = make(map[string]string)
	m.snapshot = nil
	m.series = make(map[string]*model.FundingSeries)
	return nil
}
