// Package push runs the publish protocol for one build directory: index it,
// diff against the published index, transfer the difference and finalize.
package push

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/raccreative/clawdrop/internal/controlplane"
	"github.com/raccreative/clawdrop/internal/fileindex"
	"github.com/raccreative/clawdrop/internal/syncerr"
	"github.com/raccreative/clawdrop/internal/target"
	"github.com/raccreative/clawdrop/internal/transfer"
	"github.com/raccreative/clawdrop/internal/utils"
	"github.com/spf13/afero"
)

// ControlPlane is the server side of the protocol.
type ControlPlane interface {
	RequestUpload(ctx context.Context, gameID uint64, params controlplane.RequestUploadParams) (*controlplane.RequestUploadResponse, error)
	FetchIndex(ctx context.Context, url string) (*fileindex.FileIndex, error)
	VerifyUpload(ctx context.Context, gameID uint64, params controlplane.VerifyUploadParams) error
	CompletePush(ctx context.Context, gameID uint64, params controlplane.CompletePushParams) error
	PutArtifact(ctx context.Context, url string, body []byte) error
	DevelopedGames(ctx context.Context) ([]target.Game, error)
}

var _ ControlPlane = (*controlplane.Client)(nil)

// StoreFactory opens an object store client for one set of scoped credentials.
type StoreFactory func(ctx context.Context, creds transfer.ScopedCredentials) (transfer.ObjectStore, error)

// Pusher publishes builds. The zero value is not usable: ControlPlane and
// NewStore are required.
type Pusher struct {
	ControlPlane ControlPlane
	NewStore     StoreFactory

	// Targets is optional. When set, a stored target is refreshed before
	// each push and fills in a missing game id and version.
	Targets target.Store

	FS          afero.Fs
	Observer    transfer.Observer
	Concurrency int
	Clock       func() time.Time
	Logger      *slog.Logger
}

// Result describes a finished or aborted run.
type Result struct {
	RunID       string
	State       State
	NothingToDo bool
	Params      Params
	Diff        *fileindex.DiffResult
	FileName    string

	UploadedFiles int
	UploadedBytes int64
	DeletedFiles  int
}

// Run executes one push. The first failing step aborts the run and is
// returned as a *StepError. Objects already uploaded are left in place.
func (p *Pusher) Run(ctx context.Context, args Args) (*Result, error) {
	r := &run{
		pusher: p,
		args:   args,
		fs:     p.FS,
		result: &Result{RunID: uuid.NewString()},
	}
	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r.log = logger.With("run", r.result.RunID)

	steps := []struct {
		state State
		fn    func(context.Context) error
	}{
		{AcquireContext, r.acquireContext},
		{BuildLocalIndex, r.buildLocalIndex},
		{RequestCredentials, r.requestCredentials},
		{FetchRemoteIndex, r.fetchRemoteIndex},
		{Diff, r.diff},
		{Upload, r.upload},
		{VerifyUpload, r.verifyUpload},
		{DeleteObsolete, r.deleteObsolete},
		{PublishArtifacts, r.publishArtifacts},
		{Finalize, r.finalize},
	}

	start := time.Now()
	for _, step := range steps {
		r.result.State = step.state
		r.log.Debug("push state", "state", step.state)

		err := ctx.Err()
		if err == nil {
			err = step.fn(ctx)
		}
		if err != nil {
			r.result.State = Aborted
			r.log.Error("push aborted", "state", step.state, "error", err)
			return r.result, &StepError{State: step.state, Err: err}
		}
		if r.result.NothingToDo {
			break
		}
	}

	r.result.State = Success
	r.log.Info("push complete",
		"game", r.params.GameID,
		"os", r.params.OS,
		"version", r.params.Version,
		"nothing_to_do", r.result.NothingToDo,
		"took", time.Since(start).Round(time.Millisecond),
	)
	return r.result, nil
}

// run carries what one push learns from step to step.
type run struct {
	pusher *Pusher
	args   Args
	fs     afero.Fs
	log    *slog.Logger

	params       Params
	local        *fileindex.FileIndex
	localEncoded []byte
	grant        *controlplane.RequestUploadResponse
	remote       *fileindex.FileIndex
	plan         *fileindex.TransferPlan
	orchestrator *transfer.Orchestrator
	result       *Result
}

func (r *run) acquireContext(ctx context.Context) error {
	game, err := r.refreshTarget(ctx)
	if err != nil {
		return err
	}

	params, err := ResolveParams(r.fs, r.args, game)
	if err != nil {
		return err
	}
	r.params = *params
	r.result.Params = *params
	r.log.Info("pushing", "game", params.GameID, "os", params.OS, "exe", params.Exe, "version", params.Version)
	return nil
}

// refreshTarget reloads the stored target from the control plane so that
// version bumps start from what is actually published.
func (r *run) refreshTarget(ctx context.Context) (*target.Game, error) {
	store := r.pusher.Targets
	if store == nil {
		return nil, nil
	}
	stored, err := store.Load()
	if err != nil || stored == nil {
		return nil, err
	}

	games, err := r.pusher.ControlPlane.DevelopedGames(ctx)
	if err != nil {
		return nil, err
	}
	for i := range games {
		if games[i].ID == stored.ID {
			if err := store.Save(&games[i]); err != nil {
				return nil, err
			}
			return &games[i], nil
		}
	}
	return nil, syncerr.Wrap(syncerr.ErrUnauthorized, "refresh target",
		fmt.Errorf("game %d is not among the games you develop", stored.ID))
}

func (r *run) buildLocalIndex(ctx context.Context) error {
	idx, err := fileindex.NewBuilder(r.fs).Build(ctx, r.args.Path, r.args.Ignore)
	if err != nil {
		return err
	}
	encoded, err := idx.Encode()
	if err != nil {
		return fmt.Errorf("encode fileindex: %w", err)
	}
	r.local = idx
	r.localEncoded = encoded
	r.log.Info("indexed build", "files", idx.Len(), "size", humanize.IBytes(uint64(idx.TotalSize())))
	return nil
}

func (r *run) requestCredentials(ctx context.Context) error {
	grant, err := r.pusher.ControlPlane.RequestUpload(ctx, r.params.GameID, controlplane.RequestUploadParams{
		Version:   r.params.OS,
		Fileindex: string(r.localEncoded),
	})
	if err != nil {
		return err
	}
	r.grant = grant
	r.log.Debug("credentials granted",
		"upload_key", utils.MaskSecret(grant.UploadCredentials.AccessKeyID),
		"delete_key", utils.MaskSecret(grant.DeleteCredentials.AccessKeyID),
		"bucket", grant.UploadCredentials.Bucket,
		"expires", grant.UploadCredentials.Expiration)

	uploader, err := r.pusher.NewStore(ctx, grant.UploadCredentials)
	if err != nil {
		return fmt.Errorf("upload store: %w", err)
	}
	deleter, err := r.pusher.NewStore(ctx, grant.DeleteCredentials)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}

	r.orchestrator = &transfer.Orchestrator{
		Uploader:    uploader,
		Deleter:     deleter,
		FS:          r.fs,
		Root:        r.args.Path,
		Concurrency: r.pusher.Concurrency,
		Observer:    r.pusher.Observer,
		Now:         r.pusher.Clock,
	}
	return nil
}

func (r *run) fetchRemoteIndex(ctx context.Context) error {
	url := r.grant.ExtraDownloads.Fileindex
	if url == nil {
		r.log.Debug("no published fileindex, first push for this os")
		r.remote = &fileindex.FileIndex{}
		return nil
	}
	remote, err := r.pusher.ControlPlane.FetchIndex(ctx, *url)
	if err != nil {
		return err
	}
	r.remote = remote
	return nil
}

func (r *run) diff(context.Context) error {
	reserved := fileindex.ReservedNames{}
	if r.grant.OriginalZipName != nil {
		reserved.OriginalArchiveName = *r.grant.OriginalZipName
	}

	d := fileindex.Diff(r.local, r.remote, reserved)
	r.plan = fileindex.NewTransferPlan(d, r.local, r.args.Force,
		r.grant.UploadCredentials.Prefix, r.grant.DeleteCredentials.Prefix)
	r.result.Diff = d

	if r.plan.IsEmpty() && !r.args.Force {
		r.result.NothingToDo = true
		r.log.Info("no changes to upload or delete, use --force to upload everything")
		return nil
	}
	r.log.Info("changes", "new", len(d.Added), "modified", len(d.Modified), "obsolete", len(d.Deleted),
		"upload", humanize.IBytes(uint64(r.plan.UploadBytes())))
	return nil
}

func (r *run) upload(ctx context.Context) error {
	progress, err := r.orchestrator.Upload(ctx, r.plan.Uploads, r.grant.UploadCredentials.Bucket)
	r.result.UploadedFiles = progress.FilesDone
	r.result.UploadedBytes = progress.BytesDone
	return err
}

func (r *run) verifyUpload(ctx context.Context) error {
	return r.pusher.ControlPlane.VerifyUpload(ctx, r.params.GameID, controlplane.VerifyUploadParams{
		Version:  r.params.OS,
		UploadID: r.grant.UploadID,
	})
}

func (r *run) deleteObsolete(ctx context.Context) error {
	progress, err := r.orchestrator.Delete(ctx, r.plan.Deletes, r.grant.DeleteCredentials.Bucket)
	r.result.DeletedFiles = progress.FilesDone
	return err
}

func (r *run) publishArtifacts(ctx context.Context) error {
	manifest, err := Manifest{Path: r.params.Exe, Version: r.params.Version}.Encode()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	index, err := r.local.EncodePretty()
	if err != nil {
		return fmt.Errorf("encode fileindex: %w", err)
	}

	if err := r.pusher.ControlPlane.PutArtifact(ctx, r.grant.ExtraUploads.Manifest, manifest); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if err := r.pusher.ControlPlane.PutArtifact(ctx, r.grant.ExtraUploads.Fileindex, index); err != nil {
		return fmt.Errorf("fileindex: %w", err)
	}
	return nil
}

func (r *run) finalize(ctx context.Context) error {
	name := fmt.Sprintf("%d-%s.zip", r.params.GameID, r.params.OS)
	if r.grant.OriginalZipName != nil && *r.grant.OriginalZipName != "" {
		name = *r.grant.OriginalZipName
	}
	r.result.FileName = name

	return r.pusher.ControlPlane.CompletePush(ctx, r.params.GameID, controlplane.CompletePushParams{
		OS:         r.params.OS,
		NewVersion: r.params.Version,
		FileName:   name,
	})
}
