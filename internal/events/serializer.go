// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package events

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Encode validates an event and marshals it for the wire. Invalid
// events never leave the process.
func Encode(e Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	return data, nil
}

// Decode unmarshals wire bytes into e and validates the result, so
// handlers never see a half-formed event. Events predating the schema
// version field are stamped with version 1.
func Decode(data []byte, e Event) error {
	if err := json.Unmarshal(data, e); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	switch v := e.(type) {
	case *OrderEvent:
		if v.SchemaVersion == 0 {
			v.SchemaVersion = 1
		}
	case *RatingEvent:
		if v.SchemaVersion == 0 {
			v.SchemaVersion = 1
		}
	case *ChatRequest:
		if v.SchemaVersion == 0 {
			v.SchemaVersion = 1
		}
	case *ChatResponse:
		if v.SchemaVersion == 0 {
			v.SchemaVersion = 1
		}
	}

	if err := e.Validate(); err != nil {
		return fmt.Errorf("validate event: %w", err)
	}

	return nil
}
