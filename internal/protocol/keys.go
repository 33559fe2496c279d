package protocol

import "strconv"

// Key is an integer dictionary key shared with the watch firmware.
// Values are a stable wire contract and must never be renumbered.
type Key int

const (
	KeyMessageType Key = 0

	// Weather message.
	KeyMessageID     Key = 1
	KeyConditionCode Key = 2
	KeyTemperature   Key = 3
	KeyIsDaylight    Key = 4

	// Settings message.
	KeyShowSecondsHand       Key = 5
	KeyTemperatureUnits      Key = 6
	KeyVibrateOnBTDisconnect Key = 7
	KeyShowBatteryAtPercent  Key = 8
	KeyHandStyle             Key = 9
	KeyBackgroundColor       Key = 10
	KeyForeground1Color      Key = 11
	KeyForeground2Color      Key = 12
	KeyForeground3Color      Key = 13
	KeyTemperatureSize       Key = 14
	KeyWeatherQuietTime      Key = 15
	KeyWeatherQuietTimeStart Key = 16
	KeyWeatherQuietTimeStop  Key = 17
	KeySecondsHandDuration   Key = 18
	KeyWeatherSource         Key = 19
	KeyShowTimezone          Key = 20

	// Ticker message.
	KeyTicker          Key = 21
	KeyTickerMessageID Key = 23
	KeyCoin            Key = 24
	KeyCurrency        Key = 25
	KeyTickerOn        Key = 26
)

// String returns the decimal form used as the JSON object key.
func (k Key) String() string {
	return strconv.Itoa(int(k))
}

// ParseKey parses the decimal JSON object key form of a Key.
func ParseKey(s string) (Key, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return Key(n), nil
}
