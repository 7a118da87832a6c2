// Package client assembles the stagekit stages into a ready-to-use JSON HTTP
// client.
//
// The pipeline, outermost first, is:
//
//	jsonbody decode -> metrics -> logging -> bearer -> HTTP transport
//
// Metrics, logging and bearer are optional and enabled through [Option]s.
// The primary entry point is [New]; requests are sent with [Client.Do], which
// encodes the body as JSON, drives the pipeline to completion and returns the
// decoded response.
//
// Example:
//
//	cred := bearer.FromEnv("API_TOKEN")
//	c, err := client.New[Item](nil, client.WithCredential(cred))
//	if err != nil {
//		return err
//	}
//	req, _ := message.NewRequest[any](ctx, http.MethodGet, "https://api.example.com/items/1", nil)
//	resp, err := c.Do(ctx, req)
package client
