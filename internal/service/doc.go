// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and the stores
// defined in internal/store.
//
// Services receive their dependencies through constructor injection, depend
// only on store interfaces and never on a concrete backend, and translate
// store errors into the service-level sentinels the API layer maps to HTTP
// status codes. Review sessions and grading live in the memo_review
// subpackage.
package service
