package testhelpers

import (
	"context"
	"fmt"
	"sync"

	"classifieds_backend/internal/notify"
	"classifieds_backend/internal/storage"
)

const FakeImageBaseURL = "https://cdn.test/ads/"

// FakeImageStore пишет в память и запоминает каждое обращение
type FakeImageStore struct {
	mu sync.Mutex

	ValidateErr error
	UploadErr   error
	DeleteErr   error

	Uploaded []string
	Deleted  []string
	// DeleteCalls - число вызовов Delete (не URL)
	DeleteCalls int

	// OnDelete вызывается в начале Delete, вне блокировки:
	// так тесты вклинивают чужую запись посреди операции
	OnDelete func()
}

func NewFakeImageStore() *FakeImageStore {
	return &FakeImageStore{}
}

func (s *FakeImageStore) Validate(f storage.File) error {
	return s.ValidateErr
}

func (s *FakeImageStore) Upload(ctx context.Context, f storage.File) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.UploadErr != nil {
		return "", s.UploadErr
	}
	url := fmt.Sprintf("%s%d-%s", FakeImageBaseURL, len(s.Uploaded)+1, f.Name)
	s.Uploaded = append(s.Uploaded, url)
	return url, nil
}

func (s *FakeImageStore) Delete(ctx context.Context, urls []string) error {
	if s.OnDelete != nil {
		s.OnDelete()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.DeleteCalls++
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.Deleted = append(s.Deleted, urls...)
	return nil
}

func (s *FakeImageStore) DeletedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Deleted...)
}

// Images - n фиктивных файлов с разными именами
func Images(n int) []storage.File {
	files := make([]storage.File, 0, n)
	for i := 1; i <= n; i++ {
		files = append(files, storage.File{Name: fmt.Sprintf("photo%d.jpg", i), Data: []byte{0xFF, 0xD8, 0xFF}})
	}
	return files
}

// RecordingDispatcher - синхронный Dispatcher, копит события
type RecordingDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (d *RecordingDispatcher) Dispatch(ctx context.Context, event notify.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *RecordingDispatcher) Events() []notify.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Event(nil), d.events...)
}
