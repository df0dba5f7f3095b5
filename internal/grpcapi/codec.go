package grpcapi

import (
	"fmt"

	"google.golang.org/grpc/encoding"

	api "github.com/rmacdonaldsmith/commitlog-go/pkg/api/v1"
)

// CodecName is the gRPC content-subtype for the commitlog codec.
const CodecName = "commitlog"

func init() {
	encoding.RegisterCodec(codec{})
}

type codec struct{}

func (codec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(api.Message)
	if !ok {
		return nil, fmt.Errorf("failed to marshal: %T is not an api.Message", v)
	}
	return m.Marshal()
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(api.Message)
	if !ok {
		return fmt.Errorf("failed to unmarshal: %T is not an api.Message", v)
	}
	return m.Unmarshal(data)
}

func (codec) Name() string {
	return CodecName
}
