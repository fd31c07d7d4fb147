package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a decimal-degree WGS84 value. It decodes from a JSON number or
// from a numeric string, which is how the locator and some feeds write it.
type Coordinate float64

func NewCoordinate(v float64) *Coordinate {
	c := Coordinate(v)
	return &c
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s", ErrInvalidCoordinate, string(data))
	}
	*c = Coordinate(v)
	return nil
}
