package util

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSONArray = errors.New("no json array in text")

// ExtractJSONArray достаёт из свободного текста первый блок [...] и разбирает его в dst.
// Декодер останавливается на конце массива, скобки в тексте после него не мешают.
func ExtractJSONArray(text string, dst any) error {
	s := StripCodeFences(text)
	var lastErr error
	for i := strings.IndexByte(s, '['); i != -1; {
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&raw); err != nil {
			lastErr = err
		} else if err := json.Unmarshal(raw, dst); err != nil {
			lastErr = err
		} else {
			return nil
		}
		// "[" внутри прозы: ищем следующий
		next := strings.IndexByte(s[i+1:], '[')
		if next == -1 {
			break
		}
		i += next + 1
	}
	if lastErr != nil {
		return lastErr
	}
	return ErrNoJSONArray
}
