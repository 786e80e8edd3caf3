package rpc

import "fmt"

// rawCodec passes request and response bodies through as raw protobuf wire
// bytes. zapd does not carry generated stubs for the whole lnd API; the
// small set of methods it calls itself is encoded by the lnrpc package, and
// everything else is relayed verbatim for the renderer.
type rawCodec struct{}

// rawMessage wraps a byte slice so the codec can write into it.
type rawMessage struct {
	data []byte
}

func (rawCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(*rawMessage)
	if !ok {
		return nil, fmt.Errorf("raw codec cannot marshal %T", v)
	}
	return m.data, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(*rawMessage)
	if !ok {
		return fmt.Errorf("raw codec cannot unmarshal into %T", v)
	}
	m.data = data
	return nil
}

func (rawCodec) Name() string {
	return "zap-raw"
}
