// Package transfer moves the files of a transfer plan to and from the object store.
package transfer

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/raccreative/clawdrop/internal/fileindex"
	"github.com/raccreative/clawdrop/internal/syncerr"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 8

// SlotObserver is told when an upload takes and frees a worker slot.
type SlotObserver interface {
	Acquired(key string)
	Released(key string)
}

// Orchestrator executes the object operations of a push.
// Uploads run in a bounded pool, deletes run one at a time.
type Orchestrator struct {
	Uploader ObjectStore
	Deleter  ObjectStore

	// FS defaults to the OS filesystem.
	FS   afero.Fs
	Root string

	Concurrency int
	Observer    Observer
	Slots       SlotObserver
	Now         func() time.Time
}

func (o *Orchestrator) fs() afero.Fs {
	if o.FS == nil {
		return afero.NewOsFs()
	}
	return o.FS
}

func (o *Orchestrator) concurrency() int {
	if o.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return o.Concurrency
}

func (o *Orchestrator) observer() Observer {
	if o.Observer == nil {
		return NopObserver{}
	}
	return o.Observer
}

func (o *Orchestrator) now() func() time.Time {
	if o.Now == nil {
		return time.Now
	}
	return o.Now
}

// Upload puts every object into bucket. The first failure cancels the
// remaining uploads and is returned. Objects already stored stay there.
func (o *Orchestrator) Upload(ctx context.Context, objects []fileindex.PlannedObject, bucket string) (Progress, error) {
	var total int64
	for _, obj := range objects {
		total += obj.Record.Size
	}

	limit := o.concurrency()
	agg := startAggregator(o.observer(), PhaseUpload, len(objects), total, limit, o.now())
	fs := o.fs()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for _, obj := range objects {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if o.Slots != nil {
				o.Slots.Acquired(obj.Key)
				defer o.Slots.Released(obj.Key)
			}
			if err := o.put(egCtx, fs, obj, bucket); err != nil {
				return err
			}
			agg.fileDone(obj.Record.Size)
			return nil
		})
	}
	err := eg.Wait()

	progress := agg.finish()
	if err != nil {
		return progress, err
	}
	o.observer().OnPhaseDone(progress)
	return progress, nil
}

func (o *Orchestrator) put(ctx context.Context, fs afero.Fs, obj fileindex.PlannedObject, bucket string) error {
	rec := obj.Record

	checksum, err := ChecksumSHA256(rec.Hash)
	if err != nil {
		return syncerr.Wrap(syncerr.ErrValidation, "upload "+rec.Path, err)
	}

	f, err := fs.Open(filepath.Join(o.Root, filepath.FromSlash(rec.Path)))
	if err != nil {
		return syncerr.IO("open "+rec.Path, err)
	}
	defer f.Close()

	_, err = o.Uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:            aws.String(bucket),
		Key:               aws.String(obj.Key),
		Body:              f,
		ContentLength:     aws.Int64(rec.Size),
		ContentType:       aws.String(rec.ContentType),
		ChecksumAlgorithm: types.ChecksumAlgorithmSha256,
		ChecksumSHA256:    aws.String(checksum),
	})
	if err != nil {
		return storeError("upload "+rec.Path, err)
	}
	slog.Debug("uploaded", "key", obj.Key, "size", rec.Size)
	return nil
}

// Delete removes objects from bucket in order and stops at the first failure.
func (o *Orchestrator) Delete(ctx context.Context, objects []fileindex.PlannedObject, bucket string) (Progress, error) {
	var total int64
	for _, obj := range objects {
		total += obj.Record.Size
	}

	agg := startAggregator(o.observer(), PhaseDelete, len(objects), total, 0, o.now())
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return agg.finish(), err
		}
		_, err := o.Deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(obj.Key),
		})
		if err != nil {
			return agg.finish(), storeError("delete "+obj.Record.Path, err)
		}
		slog.Debug("deleted", "key", obj.Key)
		agg.fileDone(obj.Record.Size)
	}

	progress := agg.finish()
	o.observer().OnPhaseDone(progress)
	return progress, nil
}
