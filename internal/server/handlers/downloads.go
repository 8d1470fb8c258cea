package handlers

import (
	"os"
	"sync"
	"time"
)

// exportTTL 报告文件保留时长
const exportTTL = time.Hour

type exportFile struct {
	Path        string
	FileName    string
	ContentType string
	ExpiresAt   time.Time
}

// exportStore 已生成报告的下载登记；过期条目连同文件一起清理
type exportStore struct {
	mu    sync.Mutex
	items map[string]exportFile
	ttl   time.Duration
	now   func() time.Time
}

func newExportStore(ttl time.Duration) *exportStore {
	return &exportStore{
		items: make(map[string]exportFile),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *exportStore) put(id string, f exportFile) exportFile {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	f.ExpiresAt = now.Add(s.ttl)
	s.items[id] = f
	return f
}

func (s *exportStore) get(id string) (exportFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(s.now())

	f, ok := s.items[id]
	return f, ok
}

func (s *exportStore) purgeExpiredLocked(now time.Time) {
	for id, f := range s.items {
		if now.After(f.ExpiresAt) {
			_ = os.Remove(f.Path)
			delete(s.items, id)
		}
	}
}
