package hydrate

import (
	"bytes"
	"fmt"

	toml "github.com/pelletier/go-toml"
)

// Context identifies the document being decoded.
type Context struct {
	Name   string
	Source string
}

func (c Context) label() string {
	if c.Source != "" {
		return c.Source
	}
	return c.Name
}

// PreHook lets callers mutate or normalise the payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the hydrated struct after decoding.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the default TOML decoding when provided.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts TOML documents into strongly typed structs.
type Decoder[T any] struct {
	preHooks  []PreHook
	postHooks []PostHook[T]
	strict    bool
	custom    CustomDecoder[T]
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithStrict rejects keys that have no matching field in T.
func WithStrict[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.strict = true
	}
}

// WithCustomDecoder replaces the default TOML decoding path.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// DecodeBytes parses a TOML document and decodes it with Decode.
func (d *Decoder[T]) DecodeBytes(ctx Context, data []byte) (T, error) {
	var zero T
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return zero, fmt.Errorf("hydrate: parse %q: %w", ctx.label(), err)
	}
	return d.Decode(ctx, tree.ToMap())
}

// Decode converts payload into T applying the configured hooks.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T

	if payload == nil {
		return zero, fmt.Errorf("hydrate: payload is nil for %q", ctx.label())
	}

	current, err := clonePayload(payload)
	if err != nil {
		return zero, fmt.Errorf("hydrate: clone payload for %q: %w", ctx.label(), err)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %q failed: %w", ctx.label(), err)
		}
		if next != nil {
			current = next
		}
	}

	var result T
	if d.custom != nil {
		result, err = d.custom(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: custom decoder for %q failed: %w", ctx.label(), err)
		}
	} else if err := d.decodeTree(current, &result); err != nil {
		return zero, fmt.Errorf("hydrate: decode %q: %w", ctx.label(), err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %q failed: %w", ctx.label(), err)
		}
	}

	return result, nil
}

func (d *Decoder[T]) decodeTree(payload map[string]any, out *T) error {
	tree, err := toml.TreeFromMap(payload)
	if err != nil {
		return err
	}
	if !d.strict {
		return tree.Unmarshal(out)
	}
	raw, err := tree.Marshal()
	if err != nil {
		return err
	}
	return toml.NewDecoder(bytes.NewReader(raw)).Strict(true).Decode(out)
}

func clonePayload(payload map[string]any) (map[string]any, error) {
	tree, err := toml.TreeFromMap(payload)
	if err != nil {
		return nil, err
	}
	return tree.ToMap(), nil
}
