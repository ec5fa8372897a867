package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Amount is a đồng amount in a request body. It accepts a JSON integer or a
// string the way a user typed it ("2.000.000", "1,800,000 ₫").
type Amount int64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := ParseAmount(s)
		if err != nil {
			return err
		}
		*a = Amount(v)
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
	}
	if v > MaxAmount {
		return ErrTooLarge
	}
	*a = Amount(v)
	return nil
}
