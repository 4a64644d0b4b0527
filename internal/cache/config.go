package cache

import (
	"fmt"

	"StateCache/internal/codec"
	"StateCache/internal/model"
)

const (
	DefaultTickCapacity = 10_000
	DefaultBarCapacity  = 10_000
)

// Config holds the cache options. The backend-facing fields (Encoding,
// TimestampsAsISO8601, UseTraderPrefix, UseInstanceID) are read by the
// persistence adapters, not by the cache itself.
type Config struct {
	Encoding               codec.Encoding `env:"ENCODING" envDefault:"msgpack"`
	TimestampsAsISO8601    bool           `env:"TIMESTAMPS_AS_ISO8601" envDefault:"false"`
	UseTraderPrefix        bool           `env:"USE_TRADER_PREFIX" envDefault:"true"`
	UseInstanceID          bool           `env:"USE_INSTANCE_ID" envDefault:"false"`
	FlushOnStart           bool           `env:"FLUSH_ON_START" envDefault:"false"`
	DropInstrumentsOnReset bool           `env:"DROP_INSTRUMENTS_ON_RESET" envDefault:"true"`
	TickCapacity           int            `env:"TICK_CAPACITY" envDefault:"10000"`
	BarCapacity            int            `env:"BAR_CAPACITY" envDefault:"10000"`
}

func DefaultConfig() Config {
	return Config{
		Encoding:               codec.MsgPack,
		TimestampsAsISO8601:    false,
		UseTraderPrefix:        true,
		UseInstanceID:          false,
		FlushOnStart:           false,
		DropInstrumentsOnReset: true,
		TickCapacity:           DefaultTickCapacity,
		BarCapacity:            DefaultBarCapacity,
	}
}

func (c Config) Validate() error {
	if err := model.CheckPositiveInt(c.TickCapacity, "tick_capacity"); err != nil {
		return err
	}
	if err := model.CheckPositiveInt(c.BarCapacity, "bar_capacity"); err != nil {
		return err
	}
	if _, err := codec.For(c.Encoding); err != nil {
		return &model.ValidationError{Param: "encoding", Reason: err.Error()}
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf(
		"Config(encoding=%s, timestamps_as_iso8601=%t, use_trader_prefix=%t, use_instance_id=%t, flush_on_start=%t, drop_instruments_on_reset=%t, tick_capacity=%d, bar_capacity=%d)",
		c.Encoding, c.TimestampsAsISO8601, c.UseTraderPrefix, c.UseInstanceID,
		c.FlushOnStart, c.DropInstrumentsOnReset, c.TickCapacity, c.BarCapacity,
	)
}
