package dto

import (
	"bytes"
	"encoding/json"

	"musicschool-news/pkg/utils"
)

// FlexBool is a JSON boolean that also accepts the string and number spellings multipart forms
// use ("1", "true", "off", ...). null and "" mean the field was not provided.
type FlexBool struct {
	value *bool
}

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		b.value = nil
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	value, err := utils.ParseOptionalBool("boolean field", raw)
	if err != nil {
		return err
	}
	b.value = value
	return nil
}

// Ptr returns nil when the field was not provided.
func (b FlexBool) Ptr() *bool {
	return b.value
}

func (b FlexBool) True() bool {
	return b.value != nil && *b.value
}
