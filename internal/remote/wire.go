package remote

import "github.com/gridsync/gridsync/internal/rowmodel"

// JSON frame vocabulary for the websocket protocol. The wire format is
// owned by the server; this client only speaks it.
const (
	frameLogin       = "login"
	frameLoginAck    = "loginAck"
	frameOpenTable   = "openTable"
	frameTableOpened = "tableOpened"
	frameSubscribe   = "subscribe"
	frameSubscribed  = "subscribed"
	frameViewport    = "viewport"
	frameUnsubscribe = "unsubscribe"
	frameSort        = "sort"
	frameFilter      = "filter"
	frameAck         = "ack"
	frameData        = "data"
	frameSize        = "size"
	frameError       = "error"
)

type frame struct {
	Type    string           `json:"type"`
	ID      string           `json:"id,omitempty"`
	Token   string           `json:"token,omitempty"`
	Edition string           `json:"edition,omitempty"`
	Table   string           `json:"table,omitempty"`
	Columns []rowmodel.Column `json:"columns,omitempty"`
	Size    int64            `json:"size,omitempty"`
	All     bool             `json:"all,omitempty"`
	First   int64            `json:"first,omitempty"`
	Last    int64            `json:"last,omitempty"`
	Offset  int64            `json:"offset,omitempty"`
	Rows    []map[string]any `json:"rows,omitempty"`
	Sort    SortSpec         `json:"sort,omitempty"`
	Filter  *Condition       `json:"filter,omitempty"`
	Error   string           `json:"error,omitempty"`
}
