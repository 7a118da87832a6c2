// Package jsonbody converts request and response bodies to and from JSON.
//
// [Wrap] builds a decoding stage on top of the collect stage: once the inner
// response body is fully aggregated it is parsed into a T in the same poll,
// and the response is rebuilt with the decoded value as its body. A document
// that does not parse as T fails the call with [ErrMalformedDocument]; no
// partially decoded value is ever returned.
//
// [ToRequest] is the synchronous counterpart for requests: it serializes the
// body and fills in Content-Length and Content-Type when they are absent.
//
// Example:
//
//	type Item struct {
//	    ID int `json:"id"`
//	}
//
//	svc := jsonbody.Wrap(jsonbody.NewLayer[Item](), transport)
//	req, _ := jsonbody.ToRequest(typedRequest)
//	resp, err := stage.Oneshot(ctx, svc, req)
//	// resp.Body is an Item
package jsonbody
