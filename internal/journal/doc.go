// Package journal records subscribe and unsubscribe requests that the
// directory store could not confirm, so an operator can replay them.
package journal
