// Package subscription implements the newsletter subscription lifecycle for
// the marketing site: subscribe and unsubscribe.
//
// Collection of signups must never be blocked by the directory store. Once an
// address passes validation the request succeeds: a store failure switches
// the request into fallback mode (synthesized id, journal entry) instead of
// surfacing an error. Notifications are detached tasks whose outcome is only
// logged; they are never retried and never delay the response.
//
// The service layer contains pure business logic and depends on the
// DirectoryStore, Notifier and Journal interfaces defined in repository.go.
// It never imports net/http or database/sql directly.
package subscription
