package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const persistTimeout = 5 * time.Second

type persistJob struct {
	name      string
	subjectID string
	fn        func(ctx context.Context) error
}

// Persister выполняет запись в хранилище асинхронно, вне блокировки субъекта.
// Задания ставятся под блокировкой субъекта и выполняются одним воркером в порядке постановки.
type Persister struct {
	jobs   chan persistJob
	logger *logrus.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewPersister(queueSize int, logger *logrus.Logger) *Persister {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Persister{
		jobs:   make(chan persistJob, queueSize),
		logger: logger,
	}
}

// Start запускает воркер записи
func (p *Persister) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	p.wg.Add(1)
	go p.run()
}

// Submit ставит запись в очередь без ожидания. При переполненной очереди запись теряется с ошибкой в логе.
func (p *Persister) Submit(name, subjectID string, fn func(ctx context.Context) error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.WithFields(logrus.Fields{"job": name, "subject_id": subjectID}).Warn("Persister closed, dropping write")
		return
	}
	select {
	case p.jobs <- persistJob{name: name, subjectID: subjectID, fn: fn}:
	default:
		p.logger.WithFields(logrus.Fields{"job": name, "subject_id": subjectID}).Error("Persist queue full, dropping write")
	}
}

// Close дожидается выполнения всех поставленных записей
func (p *Persister) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	started := p.started
	p.mu.Unlock()

	if !started {
		for job := range p.jobs {
			p.execute(job)
		}
		return
	}
	p.wg.Wait()
}

func (p *Persister) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.execute(job)
	}
}

func (p *Persister) execute(job persistJob) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := job.fn(ctx); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"job":        job.name,
			"subject_id": job.subjectID,
		}).Error("Failed to persist subject state")
	}
}
