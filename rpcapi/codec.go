// Package rpcapi exposes the Operational surface — trigger monitor
// runs, enqueue tasks, get task status, list scheduled tasks, fetch
// orchestrator statistics, and submit ad hoc investigations — as a thin
// gRPC facade over the core packages. Deliberately not HTTP/REST: the
// boundary layer's routing/auth/CORS concerns are out of scope, so gRPC
// with a JSON wire codec keeps the surface inspectable without
// reintroducing them.
package rpcapi

import "encoding/json"

// jsonCodec implements grpc/encoding.Codec over encoding/json, letting
// this service skip a protoc code-generation step entirely: messages are
// plain Go structs, and the wire format is JSON rather than protobuf
// binary. Registered globally under the name "json" via init.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return "json" }
