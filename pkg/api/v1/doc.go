// Package api holds the log.v1 wire messages.
//
// Messages are encoded in protobuf wire format using protowire, matching this
// schema:
//
//	message Record          { bytes value = 1; uint64 offset = 2; }
//	message ProduceRequest  { Record record = 1; }
//	message ProduceResponse { uint64 offset = 1; }
//	message ConsumeRequest  { uint64 offset = 1; }
//	message ConsumeResponse { Record record = 1; }
//
// The same Record encoding is used for entries persisted by the Pebble engine
// and for the gRPC transport.
package api
