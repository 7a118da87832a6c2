// Package message defines the request and response values that flow through a
// stagekit pipeline, and the streaming [Body] contract consumed by the body
// aggregation stage.
//
// A [Request] or [Response] is a metadata section (the embedded parts) plus a
// body whose type changes from stage to stage: a streaming [Body] coming off
// the transport, a []byte once aggregated, a decoded value once parsed.
// IntoParts and the FromParts constructors move the body out and back in
// without touching the metadata.
package message
