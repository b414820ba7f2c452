package netsync

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrMalformed  = errors.New("malformed message")
	ErrOutOfOrder = errors.New("stale or out-of-order message")
)

//go:embed schema/*.json
var schemaFS embed.FS

const envelopeSchemaURL = "https://civsim.local/schema/envelope.schema.json"

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// DefaultMaxFrame bounds a frame, compressed or not, unless WithMaxFrame
// says otherwise.
const DefaultMaxFrame = 1 << 20

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithMaxFrame rejects frames larger than n bytes, and compressed frames
// that expand beyond n.
func WithMaxFrame(n int64) CodecOption {
	return func(c *Codec) {
		if n > 0 {
			c.maxFrame = n
		}
	}
}

// Codec turns envelopes into wire frames and back. Frames are JSON,
// optionally zstd-compressed; incoming frames are validated against the
// envelope schema before they are decoded.
type Codec struct {
	compress bool
	maxFrame int64
	schema   *jsonschema.Schema

	encOnce sync.Once
	enc     *zstd.Encoder
	decOnce sync.Once
	dec     *zstd.Decoder
	initErr error
}

// NewCodec compiles the embedded schema. When compress is set, outgoing
// frames are zstd-compressed; incoming frames are accepted either way.
func NewCodec(compress bool, opts ...CodecOption) (*Codec, error) {
	raw, err := schemaFS.ReadFile("schema/envelope.schema.json")
	if err != nil {
		return nil, fmt.Errorf("read envelope schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(envelopeSchemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add envelope schema: %w", err)
	}
	s, err := c.Compile(envelopeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}
	codec := &Codec{compress: compress, maxFrame: DefaultMaxFrame, schema: s}
	for _, opt := range opts {
		opt(codec)
	}
	return codec, nil
}

// Encode marshals env into a frame.
func (c *Codec) Encode(env Envelope) ([]byte, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Type, err)
	}
	if !c.compress {
		return b, nil
	}
	c.encOnce.Do(func() {
		c.enc, c.initErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	if c.enc == nil {
		return nil, fmt.Errorf("zstd encoder: %w", c.initErr)
	}
	return c.enc.EncodeAll(b, make([]byte, 0, len(b))), nil
}

// Decode validates and unmarshals a frame. Any failure wraps ErrMalformed.
func (c *Codec) Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if int64(len(frame)) > c.maxFrame {
		return env, fmt.Errorf("%w: frame of %d bytes exceeds %d", ErrMalformed, len(frame), c.maxFrame)
	}
	if bytes.HasPrefix(frame, zstdMagic) {
		c.decOnce.Do(func() {
			c.dec, c.initErr = zstd.NewReader(nil,
				zstd.WithDecoderMaxMemory(uint64(c.maxFrame)),
				zstd.WithDecoderConcurrency(1))
		})
		if c.dec == nil {
			return env, fmt.Errorf("zstd decoder: %w", c.initErr)
		}
		raw, err := c.dec.DecodeAll(frame, nil)
		if err != nil {
			return env, fmt.Errorf("%w: zstd: %v", ErrMalformed, err)
		}
		frame = raw
	}

	dec := json.NewDecoder(bytes.NewReader(frame))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env, nil
}

// Close releases the zstd state.
func (c *Codec) Close() {
	if c.enc != nil {
		_ = c.enc.Close()
	}
	if c.dec != nil {
		c.dec.Close()
	}
}
