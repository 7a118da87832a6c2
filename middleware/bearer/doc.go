// Package bearer provides a stage that attaches an "Authorization: Bearer"
// header to every request before forwarding it to the inner service.
//
// The token comes from exactly one source, fixed when the [Layer] is built:
//
//   - [FromToken]: a static token, validated once at construction.
//   - [FromEnv]: a key looked up in a [Store] on every call (the process
//     environment by default, or a .env file via [DotenvStore]).
//   - [FromFile]: a file read on every call, off the polling goroutine.
//
// Each call fetches the token at most once, validates it, inserts the header
// and only then calls the inner service. A failed fetch or an invalid token
// resolves the call with an [*Error] and the inner service is never called.
//
// Usage:
//
//	layer := bearer.FromFile("/var/run/secrets/token")
//	svc := bearer.Wrap(layer, transport)
//	resp, err := stage.Oneshot(ctx, svc, req)
package bearer
