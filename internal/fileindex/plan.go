package fileindex

import (
	"slices"
)

// PlannedObject pairs a record with its object store key.
type PlannedObject struct {
	Record FileRecord
	Key    string
}

// TransferPlan is the list of puts and deletes derived from a diff.
type TransferPlan struct {
	Uploads []PlannedObject
	Deletes []PlannedObject
}

// NewTransferPlan derives the object operations for a push. With force set
// every local record is uploaded, whatever the diff found. Keys are the
// prefix followed by the record path, nothing else is normalized.
func NewTransferPlan(diff *DiffResult, local *FileIndex, force bool, uploadPrefix, deletePrefix string) *TransferPlan {
	var uploads []FileRecord
	if force {
		if local != nil {
			uploads = slices.Clone(local.Files)
		}
	} else {
		uploads = make([]FileRecord, 0, len(diff.Added)+len(diff.Modified))
		uploads = append(uploads, diff.Added...)
		uploads = append(uploads, diff.Modified...)
	}
	slices.SortFunc(uploads, comparePath)

	plan := &TransferPlan{
		Uploads: make([]PlannedObject, 0, len(uploads)),
		Deletes: make([]PlannedObject, 0, len(diff.Deleted)),
	}
	for _, r := range uploads {
		plan.Uploads = append(plan.Uploads, PlannedObject{Record: r, Key: uploadPrefix + r.Path})
	}
	for _, r := range diff.Deleted {
		plan.Deletes = append(plan.Deletes, PlannedObject{Record: r, Key: deletePrefix + r.Path})
	}
	return plan
}

func (p *TransferPlan) IsEmpty() bool {
	return len(p.Uploads) == 0 && len(p.Deletes) == 0
}

func (p *TransferPlan) UploadBytes() int64 {
	var total int64
	for _, o := range p.Uploads {
		total += o.Record.Size
	}
	return total
}
