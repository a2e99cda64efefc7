package sync

import (
	"strings"

	"github.com/golang/glog"

	"github.com/gridsync/gridsync/internal/remote"
	"github.com/gridsync/gridsync/internal/rowmodel"
)

// SortEntry is one column/direction pair from the grid's sort model.
type SortEntry struct {
	ColID string
	Sort  string // "asc" or "desc"
}

// SortModel is the grid's requested sort, most significant column
// first.
type SortModel []SortEntry

// spec translates the model into a remote sort specification,
// preserving column order and directions. Columns the table does not
// have are logged and skipped.
func (m SortModel) spec(header rowmodel.Header) remote.SortSpec {
	spec := make(remote.SortSpec, 0, len(m))
	for _, e := range m {
		if _, ok := header.IndexOf(e.ColID); !ok {
			glog.Warningf("sync: sort: skipping unknown column %q", e.ColID)
			continue
		}
		spec = append(spec, remote.SortColumn{
			Name: e.ColID,
			Desc: strings.EqualFold(e.Sort, "desc"),
		})
	}
	return spec
}
