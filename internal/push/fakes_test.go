package push

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/raccreative/clawdrop/internal/controlplane"
	"github.com/raccreative/clawdrop/internal/fileindex"
	"github.com/raccreative/clawdrop/internal/target"
	"github.com/raccreative/clawdrop/internal/transfer"
)

type fakeControlPlane struct {
	mu    sync.Mutex
	calls []string

	games  []target.Game
	grant  *controlplane.RequestUploadResponse
	remote *fileindex.FileIndex

	requestErr  error
	fetchErr    error
	verifyErr   error
	completeErr error
	gamesErr    error

	requested controlplane.RequestUploadParams
	verified  controlplane.VerifyUploadParams
	completed controlplane.CompletePushParams
	artifacts map[string][]byte
}

func (f *fakeControlPlane) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeControlPlane) RequestUpload(_ context.Context, _ uint64, params controlplane.RequestUploadParams) (*controlplane.RequestUploadResponse, error) {
	f.record("RequestUpload")
	f.requested = params
	return f.grant, f.requestErr
}

func (f *fakeControlPlane) FetchIndex(context.Context, string) (*fileindex.FileIndex, error) {
	f.record("FetchIndex")
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.remote == nil {
		return &fileindex.FileIndex{}, nil
	}
	return f.remote, nil
}

func (f *fakeControlPlane) VerifyUpload(_ context.Context, _ uint64, params controlplane.VerifyUploadParams) error {
	f.record("VerifyUpload")
	f.verified = params
	return f.verifyErr
}

func (f *fakeControlPlane) CompletePush(_ context.Context, _ uint64, params controlplane.CompletePushParams) error {
	f.record("CompletePush")
	f.completed = params
	return f.completeErr
}

func (f *fakeControlPlane) PutArtifact(_ context.Context, url string, body []byte) error {
	f.record("PutArtifact " + url)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.artifacts == nil {
		f.artifacts = map[string][]byte{}
	}
	f.artifacts[url] = body
	return nil
}

func (f *fakeControlPlane) DevelopedGames(context.Context) ([]target.Game, error) {
	f.record("DevelopedGames")
	return f.games, f.gamesErr
}

type fakeStore struct {
	mu      sync.Mutex
	puts    []string
	deletes []string
	putErr  error
}

func (s *fakeStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return nil, s.putErr
	}
	s.puts = append(s.puts, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.PutObjectOutput{}, nil
}

func (s *fakeStore) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

// stores hands out one fake per credential access key.
type stores struct {
	byKey map[string]*fakeStore
	err   error
}

func newStores() *stores {
	return &stores{byKey: map[string]*fakeStore{"up": {}, "del": {}}}
}

func (s *stores) factory(_ context.Context, creds transfer.ScopedCredentials) (transfer.ObjectStore, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byKey[creds.AccessKeyID], nil
}

func (s *stores) objectOps() int {
	n := 0
	for _, st := range s.byKey {
		n += len(st.puts) + len(st.deletes)
	}
	return n
}

type memTargets struct {
	game  *target.Game
	saved *target.Game
}

func (m *memTargets) Load() (*target.Game, error) { return m.game, nil }
func (m *memTargets) Save(g *target.Game) error {
	m.saved = g
	return nil
}
