package cache

import (
	"context"
	"slices"

	"StateCache/internal/model"
)

// ReferenceDataStore holds currencies, instruments and synthetic instruments.
// Hydration replaces a map wholesale; a failed load leaves it untouched.
//
// Not thread-safe.
type ReferenceDataStore struct {
	currencies  map[string]model.Currency
	instruments map[model.InstrumentID]model.Instrument
	synthetics  map[model.InstrumentID]model.SyntheticInstrument
}

func NewReferenceDataStore() *ReferenceDataStore {
	return &ReferenceDataStore{
		currencies:  make(map[string]model.Currency),
		instruments: make(map[model.InstrumentID]model.Instrument),
		synthetics:  make(map[model.InstrumentID]model.SyntheticInstrument),
	}
}

func (s *ReferenceDataStore) HydrateCurrencies(ctx context.Context, db Database) (int, error) {
	if db == nil {
		s.currencies = make(map[string]model.Currency)
		return 0, nil
	}
	loaded, err := db.LoadCurrencies(ctx)
	if err != nil {
		return 0, persistErr(StepCurrencies, err)
	}
	if loaded == nil {
		loaded = make(map[string]model.Currency)
	}
	s.currencies = loaded
	return len(loaded), nil
}

func (s *ReferenceDataStore) HydrateInstruments(ctx context.Context, db Database) (int, error) {
	if db == nil {
		s.instruments = make(map[model.InstrumentID]model.Instrument)
		return 0, nil
	}
	loaded, err := db.LoadInstruments(ctx)
	if err != nil {
		return 0, persistErr(StepInstruments, err)
	}
	if loaded == nil {
		loaded = make(map[model.InstrumentID]model.Instrument)
	}
	s.instruments = loaded
	return len(loaded), nil
}

func (s *ReferenceDataStore) HydrateSynthetics(ctx context.Context, db Database) (int, error) {
	if db == nil {
		s.synthetics = make(map[model.InstrumentID]model.SyntheticInstrument)
		return 0, nil
	}
	loaded, err := db.LoadSynthetics(ctx)
	if err != nil {
		return 0, persistErr(StepSynthetics, err)
	}
	if loaded == nil {
		loaded = make(map[model.InstrumentID]model.SyntheticInstrument)
	}
	s.synthetics = loaded
	return len(loaded), nil
}

func (s *ReferenceDataStore) AddCurrency(c model.Currency) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.currencies[c.Code] = c
	return nil
}

func (s *ReferenceDataStore) AddInstrument(i model.Instrument) error {
	if err := i.Validate(); err != nil {
		return err
	}
	s.instruments[i.ID] = i
	return nil
}

func (s *ReferenceDataStore) AddSynthetic(syn model.SyntheticInstrument) error {
	if err := syn.Validate(); err != nil {
		return err
	}
	s.synthetics[syn.ID] = syn
	return nil
}

func (s *ReferenceDataStore) Currency(code string) (model.Currency, bool) {
	c, ok := s.currencies[code]
	return c, ok
}

func (s *ReferenceDataStore) Instrument(id model.InstrumentID) (model.Instrument, bool) {
	i, ok := s.instruments[id]
	return i, ok
}

func (s *ReferenceDataStore) Synthetic(id model.InstrumentID) (model.SyntheticInstrument, bool) {
	syn, ok := s.synthetics[id]
	return syn, ok
}

// InstrumentIDs lists cached instruments, optionally restricted to venue.
func (s *ReferenceDataStore) InstrumentIDs(venue model.Venue) []model.InstrumentID {
	out := make([]model.InstrumentID, 0, len(s.instruments))
	for id := range s.instruments {
		if venue != "" && id.Venue != venue {
			continue
		}
		out = append(out, id)
	}
	slices.SortFunc(out, compareInstrumentIDs)
	return out
}

func (s *ReferenceDataStore) CurrencyCodes() []string {
	return mapKeys(s.currencies)
}

func (s *ReferenceDataStore) Counts() (currencies, instruments, synthetics int) {
	return len(s.currencies), len(s.instruments), len(s.synthetics)
}

// Clear drops currencies and synthetics, and instruments when dropInstruments
// is set.
func (s *ReferenceDataStore) Clear(dropInstruments bool) {
	s.currencies = make(map[string]model.Currency)
	s.synthetics = make(map[model.InstrumentID]model.SyntheticInstrument)
	if dropInstruments {
		s.instruments = make(map[model.InstrumentID]model.Instrument)
	}
}

func compareInstrumentIDs(a, b model.InstrumentID) int {
	if a.Venue != b.Venue {
		if a.Venue < b.Venue {
			return -1
		}
		return 1
	}
	switch {
	case a.Symbol < b.Symbol:
		return -1
	case a.Symbol > b.Symbol:
		return 1
	default:
		return 0
	}
}
