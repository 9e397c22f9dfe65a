package models

import (
	"encoding/json"
	"fmt"
)

// FlexibleString is a string that also accepts a bare JSON number when
// decoding. Older persisted configs wrote the Telegram chat id as a number;
// newer ones write a string. It always marshals back as a string.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value is neither string nor number: %w", err)
	}
	*f = FlexibleString(n.String())
	return nil
}

func (f FlexibleString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

func (f FlexibleString) String() string {
	return string(f)
}
