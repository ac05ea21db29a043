package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrRPC is wrapped by errors reported by a remote procedure.
var ErrRPC = errors.New("remote procedure failed")

// rpcError is the PostgREST error envelope.
type rpcError struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details"`
	Hint    *string `json:"hint"`
}

// Call invokes a remote procedure and decodes its result into out. out may
// be nil when the result is not needed.
func (c *Client) Call(ctx context.Context, name string, args any, out any) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if args == nil {
		args = map[string]any{}
	}

	body := c.api().Rpc(name, "", args)
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("failed to call %s: empty response", name)
	}
	if err := envelopeError(body); err != nil {
		return fmt.Errorf("failed to call %s: %w", name, err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", name, err)
	}
	return nil
}

// PostableChannels returns the channels the signed-in user may post in.
func (c *Client) PostableChannels(ctx context.Context, communityID string) ([]PostableChannel, error) {
	var channels []PostableChannel
	err := c.Call(ctx, "get_postable_channels", map[string]string{"p_community_id": communityID}, &channels)
	if err != nil {
		return nil, err
	}
	return channels, nil
}

// envelopeError reports the error carried by an RPC body, if any. A body is
// an error envelope only when it has the full PostgREST error shape.
func envelopeError(body string) error {
	if !strings.HasPrefix(strings.TrimSpace(body), "{") {
		return nil
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &keys); err != nil {
		return nil
	}
	_, hasCode := keys["code"]
	_, hasMessage := keys["message"]
	_, hasDetails := keys["details"]
	_, hasHint := keys["hint"]
	if !hasCode || !hasMessage || (!hasDetails && !hasHint) {
		return nil
	}

	var e rpcError
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		return nil
	}
	return fmt.Errorf("%w: (%s) %s", ErrRPC, e.Code, e.Message)
}
