package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMissingMessageType is returned when a dictionary carries no KeyMessageType.
	ErrMissingMessageType = errors.New("message type is missing")
	// ErrInvalidValue is returned when a dictionary value is neither an integer nor a string.
	ErrInvalidValue = errors.New("invalid dictionary value")
)

// Dict is an app-message dictionary: integer keys to int32 or string values.
type Dict map[Key]any

// Int returns the integer stored under k.
func (d Dict) Int(k Key) (int32, bool) {
	v, ok := d[k]
	if !ok {
		return 0, false
	}
	n, ok := v.(int32)
	return n, ok
}

// Text returns the string stored under k.
func (d Dict) Text(k Key) (string, bool) {
	v, ok := d[k]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// MarshalJSON encodes the dictionary as an object keyed by decimal key strings.
func (d Dict) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k.String()] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts integers, integral floats, booleans (as 0/1) and strings.
func (d *Dict) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	out := make(Dict, len(raw))
	for ks, v := range raw {
		k, err := ParseKey(ks)
		if err != nil {
			return fmt.Errorf("invalid key %q: %w", ks, err)
		}

		switch val := v.(type) {
		case json.Number:
			f, err := val.Float64()
			if err != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
				return fmt.Errorf("%w: key %d value %s", ErrInvalidValue, k, val)
			}
			out[k] = int32(f)
		case bool:
			if val {
				out[k] = int32(1)
			} else {
				out[k] = int32(0)
			}
		case string:
			out[k] = val
		default:
			return fmt.Errorf("%w: key %d value %v", ErrInvalidValue, k, v)
		}
	}

	*d = out
	return nil
}

// Defaults are the persisted settings used when a request omits a field.
type Defaults struct {
	TemperatureUnit TemperatureUnit
	WeatherSource   WeatherSource
	TickerOn        bool
	Coin            Coin
	Currency        Currency
}

// Request is a typed inbound message from the watch. It is immutable once decoded.
type Request struct {
	MessageID       int32
	Kind            Kind
	TemperatureUnit TemperatureUnit
	WeatherSource   WeatherSource
	TickerOn        bool
	TickerMessageID int32
	Coin            Coin
	Currency        Currency
}

// DecodeRequest builds a Request from an inbound dictionary, filling absent settings from defaults.
// Enum values are carried as received; unknown values are rejected by the component that consumes them.
func DecodeRequest(d Dict, defaults Defaults) (Request, error) {
	kind, ok := d.Int(KeyMessageType)
	if !ok {
		return Request{}, ErrMissingMessageType
	}

	req := Request{
		Kind:            Kind(kind),
		TemperatureUnit: defaults.TemperatureUnit,
		WeatherSource:   defaults.WeatherSource,
		TickerOn:        defaults.TickerOn,
		Coin:            defaults.Coin,
		Currency:        defaults.Currency,
	}

	if v, ok := d.Int(KeyMessageID); ok {
		req.MessageID = v
	}
	if v, ok := d.Int(KeyTemperatureUnits); ok {
		req.TemperatureUnit = TemperatureUnit(v)
	}
	if v, ok := d.Int(KeyWeatherSource); ok {
		req.WeatherSource = WeatherSource(v)
	}
	if v, ok := d.Int(KeyTickerOn); ok {
		req.TickerOn = v != 0
	}
	if v, ok := d.Int(KeyCoin); ok {
		req.Coin = Coin(v)
	}
	if v, ok := d.Int(KeyCurrency); ok {
		req.Currency = Currency(v)
	}

	req.TickerMessageID = req.MessageID
	if v, ok := d.Int(KeyTickerMessageID); ok {
		req.TickerMessageID = v
	}

	return req, nil
}

// Dict encodes the request in its wire form.
func (r Request) Dict() Dict {
	d := Dict{
		KeyMessageType:      int32(r.Kind),
		KeyMessageID:        r.MessageID,
		KeyTemperatureUnits: int32(r.TemperatureUnit),
		KeyWeatherSource:    int32(r.WeatherSource),
		KeyTickerOn:         boolToInt32(r.TickerOn),
	}
	if r.TickerOn || r.Kind == KindTicker {
		d[KeyTickerMessageID] = r.TickerMessageID
		d[KeyCoin] = int32(r.Coin)
		d[KeyCurrency] = int32(r.Currency)
	}
	return d
}

// Message is an outbound reply to the watch.
type Message interface {
	Kind() Kind
	Dict() Dict
}

// ReadyReply acknowledges the watch boot signal; it carries only the kind marker.
type ReadyReply struct{}

func (ReadyReply) Kind() Kind { return KindReady }

func (ReadyReply) Dict() Dict {
	return Dict{KeyMessageType: int32(KindReady)}
}

// WeatherReply carries normalized current conditions.
type WeatherReply struct {
	MessageID     int32
	ConditionCode int32
	Temperature   int32
	IsDaylight    bool
}

func (WeatherReply) Kind() Kind { return KindWeather }

func (r WeatherReply) Dict() Dict {
	return Dict{
		KeyMessageType:   int32(KindWeather),
		KeyMessageID:     r.MessageID,
		KeyConditionCode: r.ConditionCode,
		KeyTemperature:   r.Temperature,
		KeyIsDaylight:    boolToInt32(r.IsDaylight),
	}
}

// TickerReply carries the formatted coin price.
type TickerReply struct {
	MessageID int32
	Ticker    string
}

func (TickerReply) Kind() Kind { return KindTicker }

func (r TickerReply) Dict() Dict {
	return Dict{
		KeyMessageType:     int32(KindTicker),
		KeyTickerMessageID: r.MessageID,
		KeyTicker:          r.Ticker,
	}
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
