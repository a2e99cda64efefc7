package remote

import "time"

// Edition identifies the server variant a session talks to. Different
// editions accept temporal predicate values in different encodings.
type Edition string

const (
	EditionCommunity  Edition = "community"
	EditionEnterprise Edition = "enterprise"
)

// TemporalEncoder turns a UI date value into the remote temporal value
// wrapper the connected server edition accepts.
type TemporalEncoder func(t time.Time) any

// EncoderFor resolves the temporal encoding strategy for a server
// edition. Resolved once per connection; never re-probed per filter
// application. Unknown editions get the community encoding.
func EncoderFor(e Edition) TemporalEncoder {
	switch e {
	case EditionEnterprise:
		return func(t time.Time) any { return t.UTC().Format(time.RFC3339Nano) }
	default:
		return func(t time.Time) any { return t.UnixNano() }
	}
}
