// Package mailbox looks up purchase-confirmation email context for
// transactions from a mailbox search API. Lookups are best effort: a
// miss or an unreachable service yields no context, never a failed
// transaction.
package mailbox
