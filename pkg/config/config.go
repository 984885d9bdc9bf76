package config

import (
	"github.com/shopspring/decimal"
)

type DB struct {
	Url          string `envconfig:"URL" default:"sqlite:smartledger.db"`
	MaxOpenConns int    `envconfig:"MAX_OPEN_CONNS" default:"25"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[smartledger]"`
}

// Ledger carries the posting parameters handed to the deposit allocator.
type Ledger struct {
	Currency       string          `envconfig:"CURRENCY" default:"KES"`
	ServiceFeeFlat decimal.Decimal `envconfig:"SERVICE_FEE_FLAT" default:"2"`
}

type Bills struct {
	RoundupEnabled bool `envconfig:"ROUNDUP_ENABLED" default:"true"`
}

type Metrics struct {
	Namespace string `envconfig:"NAMESPACE" default:"smartledger"`
}

type App struct {
	Env     string   `envconfig:"APP_ENV" default:"development"`
	Log     *Log     `envconfig:"LOG"`
	DB      *DB      `envconfig:"DATABASE"`
	Ledger  *Ledger  `envconfig:"LEDGER"`
	Bills   *Bills   `envconfig:"BILLS"`
	Metrics *Metrics `envconfig:"METRICS"`
}
