// Package api holds the daemon's gRPC services. Messages are plain Go
// structs carried by a msgpack codec instead of protobuf.
package api

import (
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype of every call.
const CodecName = "msgpack"

type codec struct{}

func (codec) Marshal(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (codec) Unmarshal(d []byte, v interface{}) error {
	return msgpack.Unmarshal(d, v)
}

func (codec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(codec{})
}
