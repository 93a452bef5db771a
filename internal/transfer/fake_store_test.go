package transfer

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type putCall struct {
	Key         string
	Body        string
	ContentType string
	Checksum    string
	Length      int64
}

// fakeStore records calls and fails on chosen keys.
type fakeStore struct {
	mu      sync.Mutex
	puts    []putCall
	deletes []string
	failPut map[string]error
	failDel map[string]error
	delay   time.Duration
}

func (f *fakeStore) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	key := aws.ToString(in.Key)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failPut[key]; err != nil {
		return nil, err
	}
	f.puts = append(f.puts, putCall{
		Key:         key,
		Body:        string(body),
		ContentType: aws.ToString(in.ContentType),
		Checksum:    aws.ToString(in.ChecksumSHA256),
		Length:      aws.ToInt64(in.ContentLength),
	})
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeStore) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failDel[key]; err != nil {
		return nil, err
	}
	f.deletes = append(f.deletes, key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeStore) putKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.puts))
	for _, p := range f.puts {
		keys = append(keys, p.Key)
	}
	return keys
}

type slotCounter struct {
	mu      sync.Mutex
	current int
	max     int
}

func (s *slotCounter) Acquired(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current++
	if s.current > s.max {
		s.max = s.current
	}
}

func (s *slotCounter) Released(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current--
}

type recordingObserver struct {
	updates []Progress
	done    []Progress
}

func (r *recordingObserver) OnProgress(p Progress)  { r.updates = append(r.updates, p) }
func (r *recordingObserver) OnPhaseDone(p Progress) { r.done = append(r.done, p) }
