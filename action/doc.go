// Package action performs Siren actions and writes their results back into
// the entity store.
//
// An Executor turns a hypermedia.Action into an HTTP request: GET and HEAD
// actions carry their fields in the query string, other methods send a
// body encoded per the action type (form, JSON, or multipart). A successful
// response body is passed to the store's Update keyed by the request URL
// and the same token, so every binder on that resource is notified.
// Failures return *transport.StatusError and leave the store untouched.
package action
