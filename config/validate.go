package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rustyeddy/binscan/market"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks field ranges and the rules that span fields. All problems
// are reported together.
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, errors.New(fieldMessage(fe)))
		}
	}

	s := c.Strategy
	if s.RSIBuy >= s.RSISell {
		errs = append(errs, fmt.Errorf("strategy.rsi_buy_threshold (%g) must be below rsi_sell_threshold (%g)", s.RSIBuy, s.RSISell))
	}
	if s.ADXLow >= s.ADXHigh {
		errs = append(errs, fmt.Errorf("strategy.adx_low (%g) must be below adx_high (%g)", s.ADXLow, s.ADXHigh))
	}
	if s.StochLow >= s.StochHigh {
		errs = append(errs, fmt.Errorf("strategy.stoch_low (%g) must be below stoch_high (%g)", s.StochLow, s.StochHigh))
	}
	if s.MACDFast >= s.MACDSlow {
		errs = append(errs, fmt.Errorf("strategy.macd_fast (%d) must be below macd_slow (%d)", s.MACDFast, s.MACDSlow))
	}

	for _, a := range c.Scanner.AssetBasket {
		if _, err := market.Lookup(a); err != nil {
			errs = append(errs, fmt.Errorf("scanner.asset_basket: %w", err))
		}
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" {
			errs = append(errs, errors.New("journal.trades_file required for csv journal"))
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			errs = append(errs, errors.New("journal.db_path required for sqlite journal"))
		}
	}

	switch c.Broker.Data {
	case "oanda":
		if c.Broker.Oanda.Token == "" {
			errs = append(errs, errors.New("broker.oanda.token (or OANDA_TOKEN) required for oanda data"))
		}
	case "bridge":
		if c.Broker.Bridge.URL == "" {
			errs = append(errs, errors.New("broker.bridge.url required for bridge data"))
		}
	case "csv":
		if c.Broker.CSVDir == "" {
			errs = append(errs, errors.New("broker.csv_dir required for csv data"))
		}
	case "dukascopy":
		if c.Broker.Dukascopy.BaseURL == "" {
			errs = append(errs, errors.New("broker.dukascopy.base_url required for dukascopy data"))
		}
	}
	if !c.Execution.PaperTrading && c.Broker.Bridge.URL == "" {
		errs = append(errs, errors.New("broker.bridge.url required when paper_trading is off"))
	}

	if c.Notify.Telegram.Token != "" && c.Notify.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("notify.telegram.chat_id required with a telegram token"))
	}
	if c.Control.Backend == "redis" && c.Control.Redis.Addr == "" {
		errs = append(errs, errors.New("control.redis.addr required for redis control"))
	}

	return errors.Join(errs...)
}

// fieldMessage renders a validator error with the yaml path of the field,
// e.g. "account.stake must be greater than 0".
func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
