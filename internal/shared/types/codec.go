package types

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ErrMissingType marks a wire message without a type discriminator
var ErrMissingType = errors.New("message has no type")

// Encode serializes a message for the channel. Content-changed and
// load-document frames carry whole documents, so the fast encoder
// matters here.
func Encode(msg *Message) ([]byte, error) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", msg.Type, err)
	}
	return data, nil
}

// Decode parses a wire frame into a message
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if msg.Type == "" {
		return nil, ErrMissingType
	}
	return &msg, nil
}
