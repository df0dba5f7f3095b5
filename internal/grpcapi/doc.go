// Package grpcapi exposes a commit log over gRPC as the log.v1.Log service.
//
// The service descriptor is declared by hand and messages travel through the
// "commitlog" codec, which encodes the pkg/api/v1 types in protobuf wire
// format. Clients built from a conventional log.proto interoperate because the
// server forces that codec for every call.
package grpcapi
