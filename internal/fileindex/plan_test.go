package fileindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTransferPlan(t *testing.T) {
	local := index(rec("game.exe", "H1"), rec("data/a.bin", "H2"), rec("data/z.bin", "H9"))
	remote := index(rec("game.exe", "H1"), rec("data/z.bin", "H0"), rec("data/old.bin", "H3"))
	d := Diff(local, remote, ReservedNames{})

	plan := NewTransferPlan(d, local, false, "games/42/windows/", "games/42/windows/")

	assert.False(t, plan.IsEmpty())
	assert.Equal(t, []PlannedObject{
		{Record: rec("data/a.bin", "H2"), Key: "games/42/windows/data/a.bin"},
		{Record: rec("data/z.bin", "H9"), Key: "games/42/windows/data/z.bin"},
	}, plan.Uploads)
	assert.Equal(t, []PlannedObject{
		{Record: rec("data/old.bin", "H3"), Key: "games/42/windows/data/old.bin"},
	}, plan.Deletes)
	assert.Equal(t, int64(4), plan.UploadBytes())
}

func TestNewTransferPlan_ForceUploadsEverything(t *testing.T) {
	local := index(rec("game.exe", "H1"), rec("data/a.bin", "H2"))
	d := Diff(local, index(local.Files...), ReservedNames{})
	assert.False(t, d.HasChanges())

	plan := NewTransferPlan(d, local, false, "p/", "p/")
	assert.True(t, plan.IsEmpty())

	forced := NewTransferPlan(d, local, true, "p/", "p/")
	assert.Len(t, forced.Uploads, local.Len())
	for i, o := range forced.Uploads {
		assert.Equal(t, local.Files[i], o.Record)
		assert.Equal(t, "p/"+local.Files[i].Path, o.Key)
	}
	assert.Empty(t, forced.Deletes)
}

func TestNewTransferPlan_SeparatePrefixes(t *testing.T) {
	d := &DiffResult{
		Added:   []FileRecord{rec("a", "1")},
		Deleted: []FileRecord{rec("b", "2")},
	}
	plan := NewTransferPlan(d, index(rec("a", "1")), false, "up/", "del/")

	assert.Equal(t, "up/a", plan.Uploads[0].Key)
	assert.Equal(t, "del/b", plan.Deletes[0].Key)
}
