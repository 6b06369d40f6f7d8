package models

import (
	"bytes"
	"encoding/json"
)

// Page is a Spring style page envelope. Some endpoints return a bare array
// instead; both shapes decode into a Page.
type Page[T any] struct {
	Content       []T `json:"content"`
	Number        int `json:"number"`
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
}

func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*p = Page[T]{
			Content:       items,
			Size:          len(items),
			TotalElements: len(items),
		}
		if len(items) > 0 {
			p.TotalPages = 1
		}
		return nil
	}

	type envelope Page[T]
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return err
	}
	*p = Page[T](env)
	return nil
}
