package weather

import (
	"errors"

	"github.com/i474232898/watch-bridge/internal/protocol"
)

// ErrUnknownProvider is returned when a request names a weather source with no adapter.
var ErrUnknownProvider = errors.New("unknown weather provider")

// Reading is one provider's current conditions, normalized for the watch.
type Reading struct {
	Provider      string
	ConditionCode int
	Temperature   int // already in the requested unit, rounded
	IsDaylight    bool
}

// Reply correlates the reading with the request that asked for it.
func (r Reading) Reply(messageID int32) protocol.WeatherReply {
	return protocol.WeatherReply{
		MessageID:     messageID,
		ConditionCode: int32(r.ConditionCode),
		Temperature:   int32(r.Temperature),
		IsDaylight:    r.IsDaylight,
	}
}
