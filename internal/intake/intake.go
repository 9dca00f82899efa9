// Package intake pulls candidate order emails from a mailbox and records
// them as quote requests with the raw RFC 2822 message kept on disk.
package intake

import "cabquote/internal"

type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}
